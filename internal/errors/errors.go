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

package errors

import (
	"errors"
)

var (
	ErrMissingTable      = errors.New("missing table name")
	ErrEmptyData         = errors.New("no columns to write")
	ErrMissingID         = errors.New("data has no value for id column")
	ErrMissingWhere      = errors.New("missing WHERE parameter")
	ErrInvalidArguments  = errors.New("invalid arguments")
	ErrInvalidIdentifier = errors.New("identifier parameter is not a string")
	ErrParamOutOfRange   = errors.New("placeholder references missing parameter")
)
