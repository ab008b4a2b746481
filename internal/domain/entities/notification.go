package entities

// ConsultationCompletionNotice is sent to the messaging webhook when a teleconsultation ends
type ConsultationCompletionNotice struct {
	ConsultationID string  `json:"-"`
	ChatID         string  `json:"chatId"`
	Message        string  `json:"message"`
	PatientName    string  `json:"patientName"`
	FollowUpDate   *string `json:"followUpDate"`
}
