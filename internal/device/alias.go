package device

// aliasSection is the shape of spec.alias: a normalized sequence of
// alternative identifiers for the device (lowercase UUID, and after
// provisioning, the hex address alias).
type aliasSection []string

// EnsureAlias appends a to the device's spec.alias if not already
// present, always rewriting the section as a normalized sequence
// (dedup order preserved), and reports whether the set changed.
func EnsureAlias(d *Device, a string) bool {
	existing, _ := GetSection[aliasSection](d.Spec, "alias")

	changed := true
	for _, v := range existing {
		if v == a {
			changed = false
			break
		}
	}

	normalized := make(aliasSection, 0, len(existing)+1)
	seen := make(map[string]bool, len(existing)+1)
	for _, v := range existing {
		if !seen[v] {
			normalized = append(normalized, v)
			seen[v] = true
		}
	}
	if !seen[a] {
		normalized = append(normalized, a)
	}

	SetSection(&d.Spec, "alias", normalized)
	return changed
}

// HasAlias reports whether a is present in the device's spec.alias.
func HasAlias(d *Device, a string) bool {
	existing, _ := GetSection[aliasSection](d.Spec, "alias")
	for _, v := range existing {
		if v == a {
			return true
		}
	}
	return false
}
