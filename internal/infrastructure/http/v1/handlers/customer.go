package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/domain/catalogs/customer"
	"everpack/internal/infrastructure/http/v1/dto"
)

// CustomerHTTPHandler is a shorthand for the generic catalog handler instantiation.
type CustomerHTTPHandler = CatalogHandler[
	*customer.Customer,
	dto.CreateCustomerRequest,
	dto.UpdateCustomerRequest,
]

// CustomerHandler extends the generic catalog CRUD surface with balance lookups.
type CustomerHandler struct {
	*CustomerHTTPHandler
	customers *customer.Service
}

// NewCustomerHandler wires the customer service into the generic catalog handler.
func NewCustomerHandler(
	base *BaseHandler,
	service *customer.Service,
) *CustomerHandler {

	config := CatalogHandlerConfig[
		*customer.Customer,
		dto.CreateCustomerRequest,
		dto.UpdateCustomerRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "customer",

		MapCreateDTO: func(req dto.CreateCustomerRequest) *customer.Customer {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateCustomerRequest, existing *customer.Customer) *customer.Customer {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *customer.Customer) any {
			return dto.FromCustomer(entity)
		},
	}

	return &CustomerHandler{
		CustomerHTTPHandler: NewCatalogHandler(base, config),
		customers:           service,
	}
}

// GetBalances handles GET /customers/:id/balances - outstanding credit and
// lifetime purchase totals.
func (h *CustomerHandler) GetBalances(c *gin.Context) {
	ctx := c.Request.Context()

	customerID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	balances, err := h.customers.GetBalances(ctx, customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, balances)
}
