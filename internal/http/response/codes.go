package response

const (
	CodeOK         = 0
	CodeBadRequest = 400
	CodeNotFound   = 404
	CodeConflict   = 409
	CodeInternal   = 500
	// CodeUpstream flags failures of the remote cart proxy as distinct
	// from local faults.
	CodeUpstream = 502
)
