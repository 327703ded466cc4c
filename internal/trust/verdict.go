package trust

// Kind classifies a Verdict.
type Kind int

const (
	KindTrusted Kind = iota
	KindNoProfile
	KindInconsistent
	KindInactive
	KindNoActive
	KindConnectivity
)

func (k Kind) String() string {
	switch k {
	case KindTrusted:
		return "trusted"
	case KindNoProfile:
		return "no profile found"
	case KindInconsistent:
		return "profile inconsistency"
	case KindInactive:
		return "inactive"
	case KindNoActive:
		return "no active profile"
	case KindConnectivity:
		return "connectivity"
	default:
		return "unknown"
	}
}

// Verdict is the outcome of a lookup. It is never persisted.
type Verdict struct {
	Trusted bool
	Profile *Profile
	Reason  string
	Kind    Kind
}

func trusted(p Profile) Verdict {
	return Verdict{Trusted: true, Profile: &p, Reason: "active member profile found", Kind: KindTrusted}
}

func notTrusted(kind Kind) Verdict {
	return Verdict{Kind: kind, Reason: reasons[kind]}
}

var reasons = map[Kind]string{
	KindNoProfile:    "No member profile found associated with the public key.",
	KindInconsistent: "Problem with this member's profile: the registries disagree.",
	KindInactive:     "The member profile is inactive. Please contact the member to obtain a file with an active key.",
	KindNoActive:     "No active member profile found.",
	KindConnectivity: "Could not reach the registries. Make sure your internet connection is working.",
}
