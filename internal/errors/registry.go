package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// Registered error codes.
const (
	CodeBounds        = "E100"
	CodeTextNode      = "E101"
	CodeNotChild      = "E102"
	CodeUnderflow     = "E103"
	CodeNilNode       = "E104"
	CodeMalformed     = "E120"
	CodeUnknownOp     = "E121"
	CodeFrameTooLarge = "E122"
	CodeConfigInvalid = "E130"
	CodeConfigRead    = "E131"
	CodeStorage       = "E140"
	CodeNotFound      = "E141"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Tree Errors (E100-E119)
	// ============================================

	CodeBounds: {
		Category: CategoryBounds,
		Message:  "Index out of bounds",
		Detail:   "Child indices must address an existing position. Inserts accept [0, length]; removals and moves need the whole range inside [0, length).",
	},
	CodeTextNode: {
		Category: CategoryStructural,
		Message:  "target is a text node",
		Detail:   "Text nodes are leaves. Children can only be inserted into, removed from or moved inside element nodes.",
	},
	CodeNotChild: {
		Category: CategoryStructural,
		Message:  "node is not a child of the current container",
		Detail:   "Down only enters a node that is already attached to the current container.",
	},
	CodeUnderflow: {
		Category: CategoryStructural,
		Message:  "cursor is already at the root",
		Detail:   "Every Up must be paired with an earlier Down.",
	},
	CodeNilNode: {
		Category: CategoryStructural,
		Message:  "node is nil",
		Detail:   "Inserted and entered nodes must be constructed with dom.NewElement or dom.NewText.",
	},

	// ============================================
	// Protocol Errors (E120-E129)
	// ============================================

	CodeMalformed: {
		Category: CategoryProtocol,
		Message:  "Malformed patch data",
		Detail:   "The patch payload ended early or contained an invalid varint.",
	},
	CodeUnknownOp: {
		Category: CategoryProtocol,
		Message:  "Unknown patch operation",
		Detail:   "The patch stream contains an operation this version does not understand.",
	},
	CodeFrameTooLarge: {
		Category: CategoryProtocol,
		Message:  "Frame exceeds maximum size",
		Detail:   "Split large batches into several frames.",
	},

	// ============================================
	// Config Errors (E130-E139)
	// ============================================

	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	CodeConfigRead: {
		Category: CategoryConfig,
		Message:  "Could not read configuration",
	},

	// ============================================
	// Storage Errors (E140-E149)
	// ============================================

	CodeStorage: {
		Category: CategoryStorage,
		Message:  "Snapshot store failed",
	},
	CodeNotFound: {
		Category: CategoryStorage,
		Message:  "Snapshot not found",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
