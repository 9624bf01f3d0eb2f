package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/saralerp/books_backend/models"
	"github.com/saralerp/books_backend/utils"
	"github.com/saralerp/books_backend/workflow"
)

// writeError maps the domain error taxonomy onto HTTP statuses. Anything not
// user-correctable is a 500 with a generic body; details stay in the logs.
func writeError(c *gin.Context, err error) {
	var imbalanced *utils.ImbalancedVoucherError
	var duplicate *utils.DuplicateNumberError
	var missing *utils.MissingReferenceError
	var storage *utils.StorageFailure

	switch {
	case errors.As(err, &imbalanced):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":        err.Error(),
			"debit_total":  imbalanced.DebitTotal,
			"credit_total": imbalanced.CreditTotal,
		})
	case errors.As(err, &duplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &missing):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.As(err, &storage):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func loginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	token, user, err := models.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func getCompanyHandler(c *gin.Context) {
	company, err := models.GetCompany(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func updateCompanyHandler(c *gin.Context) {
	var input models.NewCompany
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	company, err := models.UpdateCompany(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// crudHandlers wires one resource's create/update/delete/get/list model
// functions onto gin. All resources follow the same shape, so the glue is
// generic; anything bespoke (vouchers, invoices) gets hand-written handlers.
type crudHandlers[I any, O any] struct {
	create func(c *gin.Context, input *I) (*O, error)
	update func(c *gin.Context, id int, input *I) (*O, error)
	delete func(c *gin.Context, id int) (*O, error)
	get    func(c *gin.Context, id int) (*O, error)
	list   func(c *gin.Context) ([]*O, error)
}

func (h crudHandlers[I, O]) register(group *gin.RouterGroup, path string) {
	if h.create != nil {
		group.POST(path, func(c *gin.Context) {
			var input I
			if err := c.ShouldBindJSON(&input); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			out, err := h.create(c, &input)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusCreated, out)
		})
	}
	if h.update != nil {
		group.PUT(path+"/:id", func(c *gin.Context) {
			id, ok := pathId(c)
			if !ok {
				return
			}
			var input I
			if err := c.ShouldBindJSON(&input); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			out, err := h.update(c, id, &input)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
	if h.delete != nil {
		group.DELETE(path+"/:id", func(c *gin.Context) {
			id, ok := pathId(c)
			if !ok {
				return
			}
			out, err := h.delete(c, id)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
	if h.get != nil {
		group.GET(path+"/:id", func(c *gin.Context) {
			id, ok := pathId(c)
			if !ok {
				return
			}
			out, err := h.get(c, id)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
	if h.list != nil {
		group.GET(path, func(c *gin.Context) {
			out, err := h.list(c)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}

func registerResourceRoutes(api *gin.RouterGroup) {
	crudHandlers[models.NewParty, models.Party]{
		create: func(c *gin.Context, input *models.NewParty) (*models.Party, error) {
			return models.CreateParty(c.Request.Context(), input)
		},
		update: func(c *gin.Context, id int, input *models.NewParty) (*models.Party, error) {
			return models.UpdateParty(c.Request.Context(), id, input)
		},
		delete: func(c *gin.Context, id int) (*models.Party, error) {
			return models.DeleteParty(c.Request.Context(), id)
		},
		get: func(c *gin.Context, id int) (*models.Party, error) {
			return models.GetParty(c.Request.Context(), id)
		},
		list: func(c *gin.Context) ([]*models.Party, error) {
			if name := c.Query("search"); name != "" {
				return models.SearchParties(c.Request.Context(), name)
			}
			return models.GetPartiesAll(c.Request.Context())
		},
	}.register(api, "/parties")

	crudHandlers[models.NewLedgerGroup, models.LedgerGroup]{
		create: func(c *gin.Context, input *models.NewLedgerGroup) (*models.LedgerGroup, error) {
			return models.CreateLedgerGroup(c.Request.Context(), input)
		},
		update: func(c *gin.Context, id int, input *models.NewLedgerGroup) (*models.LedgerGroup, error) {
			return models.UpdateLedgerGroup(c.Request.Context(), id, input)
		},
		delete: func(c *gin.Context, id int) (*models.LedgerGroup, error) {
			return models.DeleteLedgerGroup(c.Request.Context(), id)
		},
		get: func(c *gin.Context, id int) (*models.LedgerGroup, error) {
			return models.GetLedgerGroup(c.Request.Context(), id)
		},
		list: func(c *gin.Context) ([]*models.LedgerGroup, error) {
			return models.GetLedgerGroupsAll(c.Request.Context())
		},
	}.register(api, "/ledger-groups")

	crudHandlers[models.NewLedger, models.Ledger]{
		create: func(c *gin.Context, input *models.NewLedger) (*models.Ledger, error) {
			return models.CreateLedger(c.Request.Context(), input)
		},
		update: func(c *gin.Context, id int, input *models.NewLedger) (*models.Ledger, error) {
			return models.UpdateLedger(c.Request.Context(), id, input)
		},
		delete: func(c *gin.Context, id int) (*models.Ledger, error) {
			return models.DeleteLedger(c.Request.Context(), id)
		},
		get: func(c *gin.Context, id int) (*models.Ledger, error) {
			return models.GetLedger(c.Request.Context(), id)
		},
		list: func(c *gin.Context) ([]*models.Ledger, error) {
			if name := c.Query("search"); name != "" {
				return models.SearchLedgers(c.Request.Context(), name)
			}
			return models.GetLedgersAll(c.Request.Context())
		},
	}.register(api, "/ledgers")

	crudHandlers[models.NewProduct, models.Product]{
		create: func(c *gin.Context, input *models.NewProduct) (*models.Product, error) {
			return models.CreateProduct(c.Request.Context(), input)
		},
		update: func(c *gin.Context, id int, input *models.NewProduct) (*models.Product, error) {
			return models.UpdateProduct(c.Request.Context(), id, input)
		},
		delete: func(c *gin.Context, id int) (*models.Product, error) {
			return models.DeleteProduct(c.Request.Context(), id)
		},
		get: func(c *gin.Context, id int) (*models.Product, error) {
			return models.GetProduct(c.Request.Context(), id)
		},
		list: func(c *gin.Context) ([]*models.Product, error) {
			if name := c.Query("search"); name != "" {
				return models.SearchProducts(c.Request.Context(), name)
			}
			return models.GetProductsAll(c.Request.Context())
		},
	}.register(api, "/products")

	crudHandlers[models.NewWarehouse, models.Warehouse]{
		create: func(c *gin.Context, input *models.NewWarehouse) (*models.Warehouse, error) {
			return models.CreateWarehouse(c.Request.Context(), input)
		},
		update: func(c *gin.Context, id int, input *models.NewWarehouse) (*models.Warehouse, error) {
			return models.UpdateWarehouse(c.Request.Context(), id, input)
		},
		delete: func(c *gin.Context, id int) (*models.Warehouse, error) {
			return models.DeleteWarehouse(c.Request.Context(), id)
		},
		get: func(c *gin.Context, id int) (*models.Warehouse, error) {
			return models.GetWarehouse(c.Request.Context(), id)
		},
		list: func(c *gin.Context) ([]*models.Warehouse, error) {
			return models.GetWarehousesAll(c.Request.Context())
		},
	}.register(api, "/warehouses")
}

func registerVoucherRoutes(api *gin.RouterGroup) {
	api.POST("/vouchers", func(c *gin.Context) {
		var input models.NewVoucher
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		voucher, err := models.CreateVoucher(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, voucher)
	})
	api.DELETE("/vouchers/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		voucher, err := models.DeleteVoucher(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, voucher)
	})
	api.GET("/vouchers/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		voucher, err := models.GetVoucher(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, voucher)
	})
	api.GET("/vouchers", func(c *gin.Context) {
		var voucherType *models.VoucherType
		if v := c.Query("type"); v != "" {
			vt := models.VoucherType(v)
			if !vt.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid voucher type"})
				return
			}
			voucherType = &vt
		}
		vouchers, err := models.GetVouchersAll(c.Request.Context(), voucherType)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, vouchers)
	})
	api.GET("/ledgers/:id/balance", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		balance, err := models.LedgerBalance(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ledger_id": id, "balance": balance})
	})
}

func registerInvoiceRoutes(api *gin.RouterGroup) {
	api.POST("/invoices", func(c *gin.Context) {
		var input models.NewInvoice
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		invoice, err := workflow.CreateInvoiceWithEffects(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, invoice)
	})
	api.PUT("/invoices/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewInvoice
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		invoice, err := workflow.UpdateInvoiceWithEffects(c.Request.Context(), id, &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	})
	api.DELETE("/invoices/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		invoice, err := workflow.DeleteInvoiceWithEffects(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	})
	api.GET("/invoices/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		invoice, err := models.GetInvoice(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	})
	api.GET("/invoices", func(c *gin.Context) {
		var invoiceType *models.InvoiceType
		if v := c.Query("type"); v != "" {
			it := models.InvoiceType(v)
			invoiceType = &it
		}
		var customerId *int
		if v := c.Query("customer_id"); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil || id <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
				return
			}
			customerId = &id
		}
		invoices, err := models.GetInvoicesAll(c.Request.Context(), invoiceType, customerId)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoices)
	})
	api.GET("/transactions", func(c *gin.Context) {
		var customerId *int
		if v := c.Query("customer_id"); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil || id <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
				return
			}
			customerId = &id
		}
		transactions, err := models.GetTransactionsAll(c.Request.Context(), customerId)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, transactions)
	})
	api.GET("/transactions/:id", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		transaction, err := models.GetTransaction(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, transaction)
	})
}

// stockRebuildHandler recomputes every product's current stock from opening
// stock plus recorded movements. Ops tooling for drift recovery.
func stockRebuildHandler(c *gin.Context) {
	companyId, ok := utils.GetCompanyIdFromContext(c.Request.Context())
	if !ok || companyId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	affected, err := models.RebuildProductStock(c.Request.Context(), companyId)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"company_id": companyId, "products_updated": affected})
}
