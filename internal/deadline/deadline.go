/*
Copyright © 2026 the rotrain authors.
This file is part of rotrain.

rotrain is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rotrain is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rotrain.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package deadline centralizes the one cancellation check every
// long-running loop in rotrain repeats: a context.Context deadline
// checked at stage boundaries and at each bisection/golden-section/
// fixed-point iteration (§5). A single helper keeps the conversion
// from context's generic error into rotrain's discriminated
// rerr.Cancelled kind consistent everywhere it is checked.
package deadline

import (
	"context"

	"github.com/rotrain/rotrain/rerr"
)

// Check returns a *rerr.Error{Kind: rerr.Cancelled} if ctx has been
// cancelled or its deadline has passed, nil otherwise. where names the
// loop or stage being interrupted, for the error message.
func Check(ctx context.Context, where string) error {
	if err := ctx.Err(); err != nil {
		return rerr.Wrap(rerr.Cancelled, err, "%s cancelled", where)
	}
	return nil
}
