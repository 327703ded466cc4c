// Package trust decides whether a signer's public key belongs to a known,
// active member.
//
// A Resolver asks three independent registries for the profile published
// under the public key and combines their answers into a Verdict:
//
//   - no registry has a profile: not trusted
//   - two registries have no profile and none has an active one: not trusted,
//     the registries disagree
//   - more than one registry marks the profile inactive: not trusted
//   - otherwise the first active profile, in registry order, is trusted
//
// If any registry cannot be reached the verdict is a connectivity failure,
// which callers treat as "try again later" rather than as distrust.
//
// A TrustList records keys the user chose to always trust. It is a plain
// text file with one public key per line.
package trust
