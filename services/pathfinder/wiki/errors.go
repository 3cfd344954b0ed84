// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package wiki

import "errors"

// ErrTransient reports a remote failure that survived the single retry.
// Callers treat the affected page as a dead end, never as a fatal error.
var ErrTransient = errors.New("wiki: transient remote failure")
