package config

// Recognized input extensions
const (
	PythonFileExt = ".py"
)

// ManifestFileExtensions are the extensions of YAML definition manifests
var ManifestFileExtensions = []string{".yaml", ".yml"}

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "sigcheck.yaml"

// Version is folded into cache keys so upgrades never reuse stale results.
const Version = "0.3.0"

// Built-in type names
const (
	IntTypeName    = "int"
	StrTypeName    = "str"
	BytesTypeName  = "bytes"
	BoolTypeName   = "bool"
	FloatTypeName  = "float"
	ObjectTypeName = "object"
	NoneTypeName   = "None"
	AnyTypeName    = "Any"
	ListTypeName   = "list"
	TupleTypeName  = "Tuple"
)

// typing module spellings accepted in annotations
const (
	OptionalTypeName = "Optional"
	UnionTypeName    = "Union"
	TypingListName   = "List"
	TypeVarFuncName  = "TypeVar"
)

// Built-in function and method names
const (
	LenFuncName      = "len"
	PrintFuncName    = "print"
	AppendMethod     = "append"
	InsertMethod     = "insert"
	PopMethod        = "pop"
	InitMethodName   = "__init__"
	SelfParamName    = "self"
	ExpectedErrorTag = "error:"
)
