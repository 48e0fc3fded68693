package sizecache

import "errors"

/*
Errors returned by the cache.

All failures are returned to the immediate caller and can be matched
with errors.Is. A Get miss is not an error: it is reported through the
boolean result.

    ErrInvalidKey     -> empty or over-long key, nothing was changed
    ErrCodec          -> the value could not be encoded/compressed,
                         nothing was written and size accounting is unchanged
    ErrValueTooLarge  -> a single value exceeds capacity while
                         RejectOversize is configured
    ErrBusy           -> TryGet/TryPut found the lock held
    ErrInvalidConfig  -> New or Config.Validate rejected the configuration
*/
var (
	ErrInvalidKey    = errors.New("cache: invalid key")
	ErrCodec         = errors.New("cache: codec failure")
	ErrValueTooLarge = errors.New("cache: value exceeds capacity")
	ErrBusy          = errors.New("cache: busy")
	ErrInvalidConfig = errors.New("cache: invalid config")
)

// MaxKeyLength is the longest key, in bytes, accepted by Put and Get.
const MaxKeyLength = 250

func validateKey(key string) error {
	if key == "" || len(key) > MaxKeyLength {
		return ErrInvalidKey
	}
	return nil
}
