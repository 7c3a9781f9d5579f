package apimodel

type CurrentItem struct {
	Current string `json:"current_gif"`
}

type ItemList struct {
	Items []string `json:"items"`
}

type UploadResult struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}
