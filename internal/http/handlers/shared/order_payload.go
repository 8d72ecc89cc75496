package shared

import "github.com/medcart/internal/service"

// UpdateOrderStatusRequest 订单状态更新请求
type UpdateOrderStatusRequest struct {
	Status         string  `json:"status" binding:"required"`
	CourierPartner *string `json:"courier_partner"`
	AWBNumber      *string `json:"awb_number"`
	TrackingStatus *string `json:"tracking_status"`
	Notes          *string `json:"notes"`
}

// ToServiceInput 转换为服务层输入
func (r UpdateOrderStatusRequest) ToServiceInput() service.UpdateOrderStatusInput {
	return service.UpdateOrderStatusInput{
		Status:         r.Status,
		CourierPartner: r.CourierPartner,
		AWBNumber:      r.AWBNumber,
		TrackingStatus: r.TrackingStatus,
		Notes:          r.Notes,
	}
}
