package core

// DomainError is the unified error type of the domain layer. It carries a
// module name, a stable code, and a human-readable message so callers can
// branch on the code without string matching.
//
// The serving path treats most of these as degradable (empty result, fallback
// mode); the offline batch path treats DATA_UNAVAILABLE as fatal.
type DomainError struct {
	Module  string
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message}
}

// GetDomainError returns the DomainError inside err, or nil.
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if de, ok := err.(*DomainError); ok {
		return de
	}
	return nil
}

// Error codes.
const (
	ErrorCodeNotFound         = "NOT_FOUND"
	ErrorCodeDataUnavailable  = "DATA_UNAVAILABLE"
	ErrorCodeModelUnavailable = "MODEL_UNAVAILABLE"
	ErrorCodeNotSupported     = "NOT_SUPPORTED"
	ErrorCodeInvalidInput     = "INVALID_INPUT"
)

// Module names.
const (
	ModuleStore    = "store"
	ModuleDataset  = "dataset"
	ModuleFeature  = "feature"
	ModuleTraining = "training"
	ModuleModel    = "model"
	ModuleCatalog  = "catalog"
)

func isCode(err error, code string) bool {
	de := GetDomainError(err)
	return de != nil && de.Code == code
}

// IsNotFound reports whether err is a NOT_FOUND domain error.
func IsNotFound(err error) bool { return isCode(err, ErrorCodeNotFound) }

// IsDataUnavailable reports whether err means an upstream artifact (file,
// table) is missing. Fatal offline, degradable online.
func IsDataUnavailable(err error) bool { return isCode(err, ErrorCodeDataUnavailable) }

// IsModelUnavailable reports whether err means the ranking model is missing
// or failed to load. Serving degrades to retrieval-only mode on this.
func IsModelUnavailable(err error) bool { return isCode(err, ErrorCodeModelUnavailable) }
