package cart

import (
	"strings"
	"testing"

	"github.com/nwca-cart/internal/constants"
	"github.com/nwca-cart/internal/models"
)

func activeItem(imprint string, stitch int) models.CartItem {
	item := models.CartItem{
		ImprintType: imprint,
		CartStatus:  constants.CartStatusActive,
		Options:     models.JSON{},
	}
	if stitch > 0 {
		item.Options[constants.OptionKeyStitchCount] = stitch
	}
	return item
}

func TestCheckImprintRules(t *testing.T) {
	cases := []struct {
		name        string
		active      []models.CartItem
		imprint     string
		stitch      int
		wantConfirm bool
		wantErr     string
	}{
		{
			name:    "empty cart accepts anything",
			imprint: constants.ImprintDTG,
		},
		{
			name:    "same type no confirmation",
			active:  []models.CartItem{activeItem(constants.ImprintEmbroidery, 0)},
			imprint: constants.ImprintEmbroidery,
		},
		{
			name:        "cross type needs confirmation",
			active:      []models.CartItem{activeItem(constants.ImprintEmbroidery, 0)},
			imprint:     constants.ImprintScreenPrint,
			wantConfirm: true,
		},
		{
			name:    "cap into non-cap cart is hard",
			active:  []models.CartItem{activeItem(constants.ImprintEmbroidery, 0)},
			imprint: constants.ImprintCapEmbroidery,
			stitch:  8000,
			wantErr: "Cap Embroidery",
		},
		{
			name:    "non-cap into cap cart is hard",
			active:  []models.CartItem{activeItem(constants.ImprintCapEmbroidery, 8000)},
			imprint: constants.ImprintDTF,
			wantErr: "Cap Embroidery",
		},
		{
			name:    "cap stitch mismatch is hard",
			active:  []models.CartItem{activeItem(constants.ImprintCapEmbroidery, 8000)},
			imprint: constants.ImprintCapEmbroidery,
			stitch:  5000,
			wantErr: "stitch count",
		},
		{
			name:    "cap stitch match is fine",
			active:  []models.CartItem{activeItem(constants.ImprintCapEmbroidery, 8000)},
			imprint: constants.ImprintCapEmbroidery,
			stitch:  8000,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			confirm, err := checkImprintRules(tc.active, tc.imprint, tc.stitch)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("err = %v, want contains %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if confirm != tc.wantConfirm {
				t.Fatalf("confirm = %v, want %v", confirm, tc.wantConfirm)
			}
		})
	}
}
