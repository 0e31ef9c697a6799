// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault_IsSealed(t *testing.T) {
	p := Default()
	assert.True(t, p.IsStopName("err"))
	assert.True(t, p.IsStopName("ERR"), "stop-name matching is case-insensitive")
	assert.False(t, p.IsStopName("widgetFactory"))
}

func TestIsNoisyName(t *testing.T) {
	p := Default()
	assert.True(t, p.IsNoisyName("x"), "shorter than ASTMinNameLength")
	assert.True(t, p.IsNoisyName("ok"), "stop name")
	assert.False(t, p.IsNoisyName("Widget"))
}

func TestSeal_RequiredBeforeIsStopName(t *testing.T) {
	var p Policy
	p.StopNames = []string{"tmp"}
	assert.False(t, p.IsStopName("tmp"), "unsealed policy has no stop-name set yet")
	p.Seal()
	assert.True(t, p.IsStopName("tmp"))
}
