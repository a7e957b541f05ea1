package common

import "errors"

// Error kinds surfaced across package boundaries. Wrap with
// fmt.Errorf("...: %w", Err...) and match with errors.Is.
var (
	ErrStoreUnavailable = errors.New("metadata store unavailable")
	ErrStoreConflict    = errors.New("metadata store version conflict")
	ErrShardOpenFailure = errors.New("shard could not be opened")
	ErrShardUnavailable = errors.New("no live replica for shard")
	ErrMalformedQuery   = errors.New("malformed query")
	ErrDeployFailure    = errors.New("index deployment failed")
	ErrRpcTimeout       = errors.New("rpc deadline exceeded")
)
