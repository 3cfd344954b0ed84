// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fetch

import "errors"

// ErrCancelled reports that a fetch was abandoned because the search
// deadline passed or the context was cancelled while waiting for an
// admission slot.
var ErrCancelled = errors.New("fetch: cancelled")
