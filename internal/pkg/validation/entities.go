package validation

import (
	"stock-admin/internal/domain"
	"stock-admin/internal/pkg/entity"

	ozzo "github.com/go-ozzo/ozzo-validation"
)

// StockSchema: name, valuation, timeframe required strings; the three prices
// required integers; organization_id nullable.
var StockSchema Schema = structSchema[domain.StockInput]{
	entity: entity.Stock,
	rules: func(d *domain.StockInput) []*ozzo.FieldRules {
		return []*ozzo.FieldRules{
			ozzo.Field(&d.Name, ozzo.Required.Error(requiredMessage("name")), notBlank("name")),
			ozzo.Field(&d.PredictedPrice, ozzo.NotNil.Error(requiredMessage("predicted_price"))),
			ozzo.Field(&d.BuyingPrice, ozzo.NotNil.Error(requiredMessage("buying_price"))),
			ozzo.Field(&d.SellingPrice, ozzo.NotNil.Error(requiredMessage("selling_price"))),
			ozzo.Field(&d.Valuation, ozzo.Required.Error(requiredMessage("valuation")), notBlank("valuation")),
			ozzo.Field(&d.Timeframe, ozzo.Required.Error(requiredMessage("timeframe")), notBlank("timeframe")),
		}
	},
}

var OrganizationSchema Schema = structSchema[domain.OrganizationInput]{
	entity: entity.Organization,
	rules: func(d *domain.OrganizationInput) []*ozzo.FieldRules {
		return []*ozzo.FieldRules{
			ozzo.Field(&d.Name,
				ozzo.Required.Error(requiredMessage("name")),
				notBlank("name"),
				ozzo.Length(1, 120).Error("name must be at most 120 characters")),
			ozzo.Field(&d.Description, ozzo.Length(0, 500).Error("description must be at most 500 characters")),
		}
	},
}

var UserSchema Schema = structSchema[domain.UserInput]{
	entity: entity.User,
	rules: func(d *domain.UserInput) []*ozzo.FieldRules {
		return []*ozzo.FieldRules{
			ozzo.Field(&d.Email, ozzo.Required.Error(requiredMessage("email")), emailRule),
			ozzo.Field(&d.Fullname, ozzo.Required.Error(requiredMessage("fullname")), notBlank("fullname"), fullnameRule),
			ozzo.Field(&d.Password, ozzo.Required.Error(requiredMessage("password")), passwordRule),
			ozzo.Field(&d.Role, roleRule),
		}
	},
}

// DecodeStock converts raw input into a stock draft. Type failures are returned
// per field; absent fields are left for the schema to report.
func DecodeStock(f Fields) (domain.StockInput, Errors) {
	errs := Errors{}
	in := domain.StockInput{
		Name:           f.String("name"),
		PredictedPrice: f.Int("predicted_price", errs),
		BuyingPrice:    f.Int("buying_price", errs),
		SellingPrice:   f.Int("selling_price", errs),
		Valuation:      f.String("valuation"),
		Timeframe:      f.String("timeframe"),
		OrganizationID: f.NullableString("organization_id"),
	}
	return in, errs
}

func DecodeOrganization(f Fields) (domain.OrganizationInput, Errors) {
	return domain.OrganizationInput{
		Name:        f.String("name"),
		Description: f.NullableString("description"),
	}, Errors{}
}

func DecodeUser(f Fields) (domain.UserInput, Errors) {
	return domain.UserInput{
		Email:    f.String("email"),
		Fullname: f.String("fullname"),
		Password: f.String("password"),
		Role:     f.String("role"),
	}, Errors{}
}
