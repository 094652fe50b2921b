// internal/subtype/platform_retry.go
// Retries failed Platform.GetClassBytecode calls (any error, including a
// not-found answer; at most 3 retries) before the oracle surfaces
// TypeNotPresent, grounded on the DOMAIN STACK's cenkalti/backoff
// wiring (the teacher's own util.Backoff is dependency-free and reserved
// for low-level, allocation-sensitive paths; this heavier policy fits a
// blocking I/O call better).
package subtype

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/nodeforge/classforge/internal/rw"
)

func fetchWithRetry(ctx context.Context, platform rw.Platform, internalName string) ([]byte, error) {
	var bc []byte
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	err := backoff.Retry(func() error {
		b, err := platform.GetClassBytecode(ctx, internalName)
		if err != nil {
			return err
		}
		bc = b
		return nil
	}, policy)
	if err != nil {
		return nil, err
	}
	return bc, nil
}
