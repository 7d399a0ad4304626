// Copyright 2026 The OrgDir Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package slug derives canonical organization identifiers from display names.
// The slug is the uniqueness key for the directory and the basis for the
// physical tenant collection name, so the mapping must be deterministic and
// idempotent.
package slug

import "strings"

// Separator joins the alphanumeric runs of a normalized name.
const Separator = '_'

// Prefix namespaces tenant collections away from the service's own
// metadata collections. Collection identifiers are always derived from the
// slug, never from raw user input.
const Prefix = "org_"

// Normalize maps a display name to its canonical slug: lower-cased, with
// every maximal run of characters outside [a-z0-9] collapsed into a single
// separator, and separators stripped from both ends. The empty string is a
// valid result (for empty or all-punctuation input) and must be rejected by
// callers that need a usable identifier.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	b.Grow(len(name))
	pendingSep := false
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte(Separator)
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// CollectionName derives the physical tenant collection identifier for a
// slug. It is a pure function of the slug, so slug uniqueness carries over
// to collection-name uniqueness.
func CollectionName(s string) string {
	return Prefix + s
}

// IsTenantCollection reports whether name lies in the tenant collection
// namespace.
func IsTenantCollection(name string) bool {
	return strings.HasPrefix(name, Prefix)
}
