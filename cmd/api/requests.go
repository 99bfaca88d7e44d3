package main

import (
	"fmt"

	"orderdesk/pkg/order"
)

// createOrderRequest is the body of POST /orders. Pointer fields tell a
// missing field apart from a zero value.
type createOrderRequest struct {
	CustomerName *string        `json:"customer_name"`
	Items        *[]itemRequest `json:"items"`
}

type itemRequest struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
}

// toNewOrder checks that every required field is present. Business rules
// are left to order.NewOrder.Validate.
func (req createOrderRequest) toNewOrder() (order.NewOrder, error) {
	var (
		in    order.NewOrder
		verrs order.ValidationErrors
	)

	if req.CustomerName == nil {
		verrs = append(verrs, requiredField("customer_name"))
	} else {
		in.CustomerName = *req.CustomerName
	}

	if req.Items == nil {
		verrs = append(verrs, requiredField("items"))
	} else {
		in.Items = make([]order.Item, 0, len(*req.Items))
		for i, it := range *req.Items {
			var item order.Item
			if it.Name == nil {
				verrs = append(verrs, requiredField(fmt.Sprintf("items[%d].name", i)))
			} else {
				item.Name = *it.Name
			}
			if it.Price == nil {
				verrs = append(verrs, requiredField(fmt.Sprintf("items[%d].price", i)))
			} else {
				item.Price = *it.Price
			}
			in.Items = append(in.Items, item)
		}
	}

	if len(verrs) > 0 {
		return order.NewOrder{}, verrs
	}
	return in, nil
}

type statusUpdateRequest struct {
	Status *string `json:"status"`
}

func requiredField(name string) order.FieldError {
	return order.FieldError{Field: name, Message: "field required"}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type validationResponse struct {
	Detail order.ValidationErrors `json:"detail"`
}

type invalidStatusResponse struct {
	Detail          string         `json:"detail"`
	AllowedStatuses []order.Status `json:"allowed_statuses"`
}
