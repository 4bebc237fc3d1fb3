package device

// EnsureFinalizer adds name to the device's finalizer set if absent,
// reporting whether the set changed. Equivalent to controller-runtime's
// controllerutil.AddFinalizer, reimplemented here because the finalizer
// set lives on metav1.ObjectMeta without a client to go with it.
func EnsureFinalizer(d *Device, name string) bool {
	for _, f := range d.Finalizers {
		if f == name {
			return false
		}
	}
	d.Finalizers = append(d.Finalizers, name)
	return true
}

// RemoveFinalizer removes name from the device's finalizer set,
// reporting whether the set changed.
func RemoveFinalizer(d *Device, name string) bool {
	out := d.Finalizers[:0]
	removed := false
	for _, f := range d.Finalizers {
		if f == name {
			removed = true
			continue
		}
		out = append(out, f)
	}
	d.Finalizers = out
	return removed
}

// HasFinalizer reports whether name is present in the device's
// finalizer set.
func HasFinalizer(d *Device, name string) bool {
	for _, f := range d.Finalizers {
		if f == name {
			return true
		}
	}
	return false
}
