package transport

import "encoding/json"

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileUpdateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type PasswordChangeRequest struct {
	Password string `json:"password"`
}

type ProgressRequest struct {
	Status string `json:"status"`
}

// MarkReadRequest accepts ids as numbers or numeric strings.
type MarkReadRequest struct {
	IDs IDList `json:"ids"`
}

// IDList decodes any JSON value; anything but an array becomes an empty list.
type IDList []interface{}

func (l *IDList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	items, _ := raw.([]interface{})
	*l = items
	return nil
}
