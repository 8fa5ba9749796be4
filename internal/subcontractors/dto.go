package subcontractors

import "ascend-backend/internal/notify"

type submitResponse struct {
	Success         bool            `json:"success"`
	Data            *notify.Receipt `json:"data,omitempty"`
	Message         string          `json:"message,omitempty"`
	SubcontractorID *string         `json:"subcontractorId,omitempty"`
}

func toSubmitResponse(out Outcome) submitResponse {
	if out.Simulated {
		return submitResponse{Success: true, Message: "Submission received (Simulation)"}
	}
	resp := submitResponse{Success: true, Data: out.Receipt}
	if out.SubcontractorID != "" {
		id := out.SubcontractorID
		resp.SubcontractorID = &id
	}
	return resp
}
