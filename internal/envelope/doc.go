// Package envelope encodes and decodes the Mainsail signature block.
//
// The block is 315 bytes of newline-terminated text, 44 columns wide:
//
//	--------------BEGIN SIGNATURE---------------
//	<signature characters 0-43>
//	<signature characters 44-87>
//	---------------END SIGNATURE----------------
//	--------BEGIN PUBLIC KEY FOR SIGNER---------
//	<public key, 44 characters>
//	---------END PUBLIC KEY FOR SIGNER----------
//
// Decoding slices fixed offsets and never looks at the banners, so any
// writer must reproduce the layout byte for byte.
//
// A bundle (.edbnl) is the block followed by the signed message. A detached
// signature (.edsig) is the block alone, stored next to the document.
package envelope
