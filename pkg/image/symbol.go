package image

// SymbolKind classifies a symbol defined on an image.
type SymbolKind int

const (
	Function SymbolKind = iota
	// LibraryFunction is a function imported from another module.
	LibraryFunction
	ImportAddress
	Data
)

func (k SymbolKind) String() string {
	switch k {
	case Function:
		return "function"
	case LibraryFunction:
		return "library-function"
	case ImportAddress:
		return "import-address"
	case Data:
		return "data"
	default:
		return "unknown"
	}
}

func (k SymbolKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type Symbol struct {
	Kind    SymbolKind `json:"kind" yaml:"kind"`
	Name    string     `json:"name" yaml:"name"`
	Address uint64     `json:"address" yaml:"address"`
}
