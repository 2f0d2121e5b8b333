package order

// Payload is the JSON shape of an order shared by the HTTP API, the
// websocket feed and the event log. Money is a fixed two-decimal string.
type Payload struct {
	ID              string        `json:"id"`
	CustomerName    string        `json:"customer_name"`
	Date            string        `json:"date"`
	Time            string        `json:"time"`
	Items           []ItemPayload `json:"items"`
	Total           string        `json:"total"`
	Type            string        `json:"type"`
	Status          string        `json:"status"`
	TableNo         *string       `json:"table_no,omitempty"`
	Address         *string       `json:"address,omitempty"`
	PreparationTime *int          `json:"preparation_time,omitempty"`
}

type ItemPayload struct {
	Name     string `json:"name"`
	Quantity int32  `json:"quantity"`
	Price    string `json:"price"`
}

// NewPayload converts o for the wire.
func NewPayload(o Order) Payload {
	p := Payload{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		Date:         o.Date,
		Time:         o.Time,
		Items:        make([]ItemPayload, len(o.Items)),
		Total:        o.Total.StringFixed(2),
		Type:         o.Type,
		Status:       o.Status,
	}
	for i, it := range o.Items {
		p.Items[i] = ItemPayload{Name: it.Name, Quantity: it.Quantity, Price: it.Price.StringFixed(2)}
	}
	if o.TableNo != "" {
		v := o.TableNo
		p.TableNo = &v
	}
	if o.Address != "" {
		v := o.Address
		p.Address = &v
	}
	if o.PreparationTime != nil {
		v := *o.PreparationTime
		p.PreparationTime = &v
	}
	return p
}
