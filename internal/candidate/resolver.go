package candidate

// NextMissing returns the first unset field in asking order, or FieldNone when the
// record is complete. A FieldNone result is the signal to move on to questions.
func NextMissing(r *Record) Field {
	for _, f := range Fields {
		if !r.IsSet(f) {
			return f
		}
	}
	return FieldNone
}

// Complete reports whether every field is set.
func Complete(r *Record) bool {
	return NextMissing(r) == FieldNone
}
