package kommo

type customFieldValue struct {
	Value    string `json:"value"`
	EnumCode string `json:"enum_code,omitempty"`
}

type customField struct {
	FieldCode string             `json:"field_code"`
	Values    []customFieldValue `json:"values"`
}

type contactRequest struct {
	Name         string        `json:"name"`
	CustomFields []customField `json:"custom_fields_values,omitempty"`
}

type tag struct {
	Name string `json:"name"`
}

type contactRef struct {
	ID int `json:"id"`
}

type leadEmbedded struct {
	Tags     []tag        `json:"tags,omitempty"`
	Contacts []contactRef `json:"contacts,omitempty"`
}

type leadRequest struct {
	Name     string       `json:"name"`
	StatusID int          `json:"status_id,omitempty"`
	Embedded leadEmbedded `json:"_embedded"`
}

type idList struct {
	ID int `json:"id"`
}

type embeddedResponse struct {
	Embedded struct {
		Contacts []idList `json:"contacts"`
		Leads    []idList `json:"leads"`
	} `json:"_embedded"`
}
