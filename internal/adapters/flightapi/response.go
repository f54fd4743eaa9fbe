package flightapi

import (
	"strconv"

	"github.com/okian/stipend/internal/domain/flightprice"
)

type offersResponse struct {
	Data []offerJSON `json:"data"`
}

type offerJSON struct {
	Price struct {
		Currency   string `json:"currency"`
		Total      string `json:"total"`
		GrandTotal string `json:"grandTotal"`
	} `json:"price"`
	Itineraries []struct {
		Segments []struct {
			CarrierCode string `json:"carrierCode"`
			Operating   struct {
				CarrierCode string `json:"carrierCode"`
			} `json:"operating"`
		} `json:"segments"`
	} `json:"itineraries"`
}

type errorResponse struct {
	Errors []struct {
		Status int    `json:"status"`
		Code   int    `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// offers converts the payload. Offers with unreadable prices keep a zero
// total and are ignored downstream.
func (r offersResponse) offers() []flightprice.Offer {
	out := make([]flightprice.Offer, 0, len(r.Data))
	for _, d := range r.Data {
		raw := d.Price.GrandTotal
		if raw == "" {
			raw = d.Price.Total
		}
		total, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			total = 0
		}
		o := flightprice.Offer{Total: total, Currency: d.Price.Currency}
		for _, it := range d.Itineraries {
			var segs []flightprice.Segment
			for _, s := range it.Segments {
				segs = append(segs, flightprice.Segment{
					CarrierCode:          s.CarrierCode,
					OperatingCarrierCode: s.Operating.CarrierCode,
				})
			}
			o.Itineraries = append(o.Itineraries, flightprice.Itinerary{Segments: segs})
		}
		out = append(out, o)
	}
	return out
}
