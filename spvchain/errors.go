package spvchain

import "errors"

// Sentinel errors for the chain engine's submission, query, and
// initialization paths (spec §7). powlimit.ErrBitsNegative and
// powlimit.ErrBitsOverflow cover the compact-bits decoding half of the
// taxonomy and are returned unwrapped where they originate.
var (
	// ErrInvalidHeaderLength is returned when raw header bytes submitted to
	// Submit or BatchSubmit are not exactly header.Size bytes.
	ErrInvalidHeaderLength = errors.New("spvchain: header must be exactly 80 bytes")

	// ErrHeaderAlreadyExists is returned when a submitted header's hash is
	// already present in the chain.
	ErrHeaderAlreadyExists = errors.New("spvchain: header already exists")

	// ErrPrevBlockNotFound is returned when a submitted header's PrevBlock
	// is not a known header in the chain.
	ErrPrevBlockNotFound = errors.New("spvchain: prev block not found")

	// ErrForkBelowAnchor is returned when a submitted header would fork the
	// chain at or below the initialization anchor height.
	ErrForkBelowAnchor = errors.New("spvchain: fork point is at or below the anchor height")

	// ErrInvalidBits is returned when a submitted header's Bits field does
	// not match the bits required by the difficulty-retargeting rule.
	ErrInvalidBits = errors.New("spvchain: header bits do not match required difficulty")

	// ErrInvalidProofOfWork is returned when a submitted header's block hash
	// does not satisfy its own claimed target.
	ErrInvalidProofOfWork = errors.New("spvchain: block hash does not satisfy claimed target")

	// ErrBlockNotFound is returned by query operations when the requested
	// height or hash is not present in the chain.
	ErrBlockNotFound = errors.New("spvchain: block not found")

	// ErrNotCanonical is returned by query operations when the requested
	// block exists but is not on the canonical chain.
	ErrNotCanonical = errors.New("spvchain: block is not on the canonical chain")

	// ErrInsufficientConfirmations is returned by a requireSafe query when
	// the requested block has not yet reached the finality depth.
	ErrInsufficientConfirmations = errors.New("spvchain: block has not reached finality depth")

	// ErrBadProofInput is returned by merkle proof verification when its
	// block-selector or transaction-data arguments are malformed.
	ErrBadProofInput = errors.New("spvchain: malformed merkle proof input")

	// ErrInitNotAtRetargetBoundary is returned by NewChain when the anchor
	// header's height is not a multiple of the retarget interval.
	ErrInitNotAtRetargetBoundary = errors.New("spvchain: anchor height must fall on a retarget boundary")
)
