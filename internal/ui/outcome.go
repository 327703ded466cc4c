package ui

// Symbols used at the start of per-file result lines.
const (
	SymbolOK    = "✓"
	SymbolFail  = "✗"
	SymbolSkip  = "→"
	SymbolAsk   = "?"
	ellipsis    = "…"
	keyHeadSize = 8
	keyTailSize = 4
)

// Outcome renders a per-file outcome word with a colored symbol.
func Outcome(outcome string) string {
	switch outcome {
	case "signed", "verified", "checked", "trusted":
		return Success.Sprint(SymbolOK) + " " + outcome
	case "quarantined", "failed", "distrusted":
		return Error.Sprint(SymbolFail) + " " + outcome
	case "skipped", "deferred":
		return Warning.Sprint(SymbolSkip) + " " + outcome
	default:
		return Info.Sprint(SymbolAsk) + " " + outcome
	}
}

// ShortKey abbreviates a 44-character public key for tables.
func ShortKey(key string) string {
	if len(key) <= keyHeadSize+keyTailSize+1 {
		return Key.Sprint(key)
	}
	return Key.Sprint(key[:keyHeadSize] + ellipsis + key[len(key)-keyTailSize:])
}
