package appointment

type CreateAppointmentRequest struct {
	ChatID       string `json:"chat_id" binding:"required"`
	ServiceID    int64  `json:"service_id" binding:"required"`
	SlotID       int64  `json:"slot_id" binding:"required"`
	CustomerName string `json:"customer_name,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type RescheduleRequest struct {
	NewSlotID int64 `json:"new_slot_id" binding:"required"`
}
