package cart

import (
	"fmt"

	"github.com/nwca-cart/internal/constants"
	"github.com/nwca-cart/internal/models"
)

// checkImprintRules enforces the imprint-type business rules: Cap Embroidery
// never coexists with any other type (hard), all active Cap Embroidery items
// share one stitch count (hard), and any other cross-type mix needs explicit
// confirmation (soft).
func checkImprintRules(active []models.CartItem, imprintType string, stitchCount int) (needsConfirmation bool, err error) {
	capPresent := false
	otherPresent := false
	for _, item := range active {
		if item.ImprintType == constants.ImprintCapEmbroidery {
			capPresent = true
		} else {
			otherPresent = true
		}
	}

	if imprintType == constants.ImprintCapEmbroidery {
		if otherPresent {
			return false, &BusinessRuleError{Message: "Cap Embroidery cannot be combined with other decoration methods"}
		}
		for _, item := range active {
			if item.ImprintType != constants.ImprintCapEmbroidery {
				continue
			}
			if existing := item.StitchCount(); existing != 0 && stitchCount != existing {
				return false, &BusinessRuleError{
					Message: fmt.Sprintf("all Cap Embroidery items must use the same stitch count (cart has %d, requested %d)", existing, stitchCount),
				}
			}
		}
		return false, nil
	}

	if capPresent {
		return false, &BusinessRuleError{Message: "the cart contains Cap Embroidery items; other decoration methods cannot be added"}
	}
	for _, item := range active {
		if item.ImprintType != imprintType {
			return true, nil
		}
	}
	return false, nil
}
