package config

// SecretStringValue is what gets printed in place of the hidden value.
const SecretStringValue = "<secret>"

// SecretString holds credentials (authorization header for image fetching)
// which must never show up in logs, config dumps or debug reports.
type SecretString string

// Reveal returns actual value, to be used only where credential is consumed.
func (s SecretString) Reveal() string {
	return string(s)
}

// String implements fmt.Stringer so zap.Stringer and %v never leak the value.
func (s SecretString) String() string {
	if len(s) == 0 {
		return ""
	}
	return SecretStringValue
}

// MarshalJSON marshals SecretString to JSON making sure that actual value is not visible.
func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte("\"" + SecretStringValue + "\""), nil
}

// MarshalYAML marshals SecretString to YAML making sure that actual value is not visible.
func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return SecretStringValue, nil
}
