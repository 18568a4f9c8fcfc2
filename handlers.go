package main

import (
	"errors"
	"net/http"
	"strconv"

	"bitbucket.org/thukhadata/creditbook_backend/models"
	"bitbucket.org/thukhadata/creditbook_backend/scoring"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
	"bitbucket.org/thukhadata/creditbook_backend/workflow"
	"github.com/gin-gonic/gin"
)

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	if errors.Is(err, utils.ErrorRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
}

/* Companies */

func createCompanyHandler(c *gin.Context) {
	var input models.NewCompany
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	company, err := models.CreateCompany(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func updateCompanyHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewCompany
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	company, err := models.UpdateCompany(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func deleteCompanyHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	company, err := models.DeleteCompany(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func getCompanyHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	company, err := models.GetCompany(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func listCompaniesHandler(c *gin.Context) {
	companies, err := models.GetAllCompanies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

/* Customers */

func createCustomerHandler(c *gin.Context) {
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	customer, err := models.CreateCustomer(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func updateCustomerHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	customer, err := models.UpdateCustomer(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func deleteCustomerHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	customer, err := models.DeleteCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func getCustomerHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	customer, err := models.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func listCustomersHandler(c *gin.Context) {
	var name *string
	if v := c.Query("name"); v != "" {
		name = &v
	}
	customers, err := models.GetAllCustomers(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

// customerScoreHandler recomputes the score from the customer's full invoice
// history without persisting it; the nightly job owns the stored value.
func customerScoreHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	customer, err := models.GetCustomer(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	invoices, err := models.GetCustomerInvoices(ctx, customer.CompanyId, customer.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	score := scoring.Score(workflow.ScoringInvoices(invoices))
	category := scoring.Categorize(score)
	c.JSON(http.StatusOK, gin.H{
		"customer_id":  customer.ID,
		"score":        score,
		"stored_score": customer.CreditScore,
		"category":     category,
		"color":        scoring.Color(category),
	})
}

/* Invoices */

func createInvoiceHandler(c *gin.Context) {
	var input models.NewInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	invoice, err := models.CreateInvoice(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

func updateInvoiceHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	invoice, err := models.UpdateInvoice(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func deleteInvoiceHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	invoice, err := models.DeleteInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func getInvoiceHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	invoice, err := models.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func listInvoicesHandler(c *gin.Context) {
	var customerId *int
	if v := c.Query("customer_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
			return
		}
		customerId = &n
	}
	var status *models.InvoiceStatus
	if v := c.Query("status"); v != "" {
		s := models.InvoiceStatus(v)
		status = &s
	}
	invoices, err := models.GetAllInvoices(c.Request.Context(), customerId, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

/* Receipts */

func createReceiptHandler(c *gin.Context) {
	var input models.NewReceipt
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	receipt, err := models.CreateReceipt(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func deleteReceiptHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	receipt, err := models.DeleteReceipt(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func getReceiptHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	receipt, err := models.GetReceipt(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func listReceiptsHandler(c *gin.Context) {
	var invoiceId *int
	if v := c.Query("invoice_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice_id"})
			return
		}
		invoiceId = &n
	}
	receipts, err := models.GetAllReceipts(c.Request.Context(), invoiceId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipts)
}

/* Users */

// meHandler echoes the identity the auth middleware resolved, so clients can
// bootstrap their session without a separate user fetch.
func meHandler(c *gin.Context) {
	ctx := c.Request.Context()
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userId, _ := utils.GetUserIdFromContext(ctx)
	userName, _ := utils.GetUserNameFromContext(ctx)
	isAdmin, _ := utils.GetIsAdminFromContext(ctx)
	c.JSON(http.StatusOK, gin.H{
		"company_id": companyId,
		"user_id":    userId,
		"user_name":  userName,
		"is_admin":   isAdmin,
	})
}

// checkAdminLimit enforces at most one Admin per company. An API rule, not a
// store constraint.
func checkAdminLimit(c *gin.Context, level models.AccessLevel, exceptUserId int) bool {
	if level != models.AccessLevelAdmin {
		return true
	}
	ctx := c.Request.Context()
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	count, err := models.CountAdmins(ctx, companyId, exceptUserId)
	if err != nil {
		respondError(c, err)
		return false
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company already has an admin user"})
		return false
	}
	return true
}

func createUserHandler(c *gin.Context) {
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	if !checkAdminLimit(c, input.AccessLevel, 0) {
		return
	}
	user, err := models.CreateUser(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func updateUserHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	if !checkAdminLimit(c, input.AccessLevel, id) {
		return
	}
	user, err := models.UpdateUser(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func deleteUserHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	user, err := models.DeleteUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func getUserHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	user, err := models.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func listUsersHandler(c *gin.Context) {
	users, err := models.GetAllUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

/* Preferences */

func getPreferencesHandler(c *gin.Context) {
	ctx := c.Request.Context()
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	prefs, err := models.GetPreferences(ctx, companyId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func putPreferencesHandler(c *gin.Context) {
	ctx := c.Request.Context()
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var input map[string]string
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	for key, value := range input {
		if err := models.SetPreference(ctx, companyId, key, value); err != nil {
			respondError(c, err)
			return
		}
	}
	prefs, err := models.GetPreferences(ctx, companyId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

/* Notifications / summaries */

func listNotificationsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	notifications, err := models.GetNotifications(ctx, companyId, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func getDailySummaryHandler(c *gin.Context) {
	ctx := c.Request.Context()
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	day := c.Param("day")
	summary, err := models.GetDailySummary(ctx, companyId, day)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no summary for day"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
