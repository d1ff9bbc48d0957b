// Copyright 2023 SAP SE
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
	log "github.com/sirupsen/logrus"

	"github.com/sapcc/pgcrud/internal/config"
)

var retryBackoff = 50 * time.Millisecond

// IsTransient reports whether running the same statement again may succeed.
// Constraint violations never are.
func IsTransient(err error) bool {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		if pgerrcode.IsIntegrityConstraintViolation(pe.Code) {
			return false
		}
		return pe.Code == pgerrcode.SerializationFailure ||
			pe.Code == pgerrcode.DeadlockDetected ||
			pgerrcode.IsConnectionException(pe.Code)
	}
	return pgconn.SafeToRetry(err)
}

// Retry runs fn until it succeeds, fails with a non transient error or
// database.max_retries is exhausted.
func Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(config.Global.Database.MaxRetries, retry.NewExponential(retryBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && IsTransient(err) {
			log.WithError(err).Warn("db.Retry")
			return retry.RetryableError(err)
		}
		return err
	})
}
