package routes

import (
	"time"

	"food-donation-server/models"
	"food-donation-server/storage"
	"food-donation-server/utils"

	"github.com/kataras/iris/v12"
)

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type categoryQuantity struct {
	Category      string `json:"category"`
	UnitOfMeasure string `json:"unit_of_measure,omitempty"`
	TotalQuantity int64  `json:"total_quantity"`
}

type monthCount struct {
	Month          string `json:"month"`
	TotalDonations int64  `json:"total_donations"`
}

type roleCount struct {
	Role           string `json:"role"`
	TotalDonations int64  `json:"total_donations,omitempty"`
	TotalUsers     int64  `json:"total_users,omitempty"`
}

func DonationStatusDistribution(ctx iris.Context) {
	var rows []statusCount
	if err := storage.DB.Model(&models.Donation{}).
		Select("status, COUNT(id) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"data": rows})
}

// FoodCategoryDistribution totals donated food per category and unit.
// Only weight and volume units are comparable, so the rest are left out.
func FoodCategoryDistribution(ctx iris.Context) {
	var rows []categoryQuantity
	if err := storage.DB.Model(&models.DonatedFood{}).
		Select("category, unit_of_measure, SUM(quantity) AS total_quantity").
		Where("unit_of_measure IN ?", []string{"kilogramos", "litros"}).
		Group("category, unit_of_measure").
		Scan(&rows).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"data": rows})
}

func MonthlyDonations(ctx iris.Context) {
	var rows []monthCount
	if err := storage.DB.Raw(`
		SELECT DATE_FORMAT(created_at, '%Y-%m') AS month, COUNT(id) AS total_donations
		FROM donations
		GROUP BY DATE_FORMAT(created_at, '%Y-%m')
		ORDER BY DATE_FORMAT(created_at, '%Y-%m')`).
		Scan(&rows).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"data": rows})
}

func TopTwoDonatedFoods(ctx iris.Context) {
	var rows []categoryQuantity
	if err := storage.DB.Model(&models.DonatedFood{}).
		Select("category, SUM(quantity) AS total_quantity").
		Where("unit_of_measure IN ?", []string{"kilogramos", "litros"}).
		Group("category").
		Order("total_quantity DESC").
		Limit(2).
		Scan(&rows).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"data": rows})
}

func DonationsByRole(ctx iris.Context) {
	var rows []roleCount
	if err := storage.DB.Raw(`
		SELECT users.role, COUNT(donations.id) AS total_donations
		FROM donations
		INNER JOIN users ON donations.donor_id = users.id
		GROUP BY users.role
		ORDER BY total_donations DESC`).
		Scan(&rows).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"data": rows})
}

func UsersByRole(ctx iris.Context) {
	var rows []roleCount
	if err := storage.DB.Model(&models.User{}).
		Select("role, COUNT(id) AS total_users").
		Group("role").
		Order("total_users DESC").
		Scan(&rows).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"data": rows})
}

func TotalDonations(ctx iris.Context) {
	var total int64
	if err := storage.DB.Model(&models.Donation{}).Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"total_donations": total})
}

func TotalFood(ctx iris.Context) {
	var total *int64
	if err := storage.DB.Model(&models.DonatedFood{}).
		Select("SUM(quantity)").
		Scan(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	quantity := int64(0)
	if total != nil {
		quantity = *total
	}

	ctx.JSON(iris.Map{"total_food_quantity": quantity})
}

func TotalUsers(ctx iris.Context) {
	var total int64
	if err := storage.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"total_users": total})
}

func TotalCharities(ctx iris.Context) {
	var total int64
	if err := storage.DB.Model(&models.User{}).
		Where("role = ?", "charity").
		Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"total_charities": total})
}

type donationReportRow struct {
	DonationID   uint      `json:"donation_id"`
	DonorName    string    `json:"donor_name"`
	ReceiverName string    `json:"receiver_name"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// DonationsReport lists donations in a date range with both party
// names resolved, for the admin export screen.
func DonationsReport(ctx iris.Context) {
	startDate, endDate, ok := reportRange(ctx)
	if !ok {
		return
	}

	var rows []donationReportRow
	if err := storage.DB.Raw(`
		SELECT
			d.id AS donation_id,
			u_donor.name AS donor_name,
			u_receiver.name AS receiver_name,
			d.description,
			d.status,
			d.created_at
		FROM donations d
		INNER JOIN users u_donor ON d.donor_id = u_donor.id
		INNER JOIN users u_receiver ON d.receiver_id = u_receiver.id
		WHERE d.created_at BETWEEN ? AND ?
		ORDER BY d.created_at`, startDate, endDate).
		Scan(&rows).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"data": rows})
}

func FoodDonationsReport(ctx iris.Context) {
	startDate, endDate, ok := reportRange(ctx)
	if !ok {
		return
	}

	var rows []categoryQuantity
	if err := storage.DB.Raw(`
		SELECT
			donated_foods.category AS category,
			donated_foods.unit_of_measure AS unit_of_measure,
			SUM(donated_foods.quantity) AS total_quantity
		FROM donated_foods
		INNER JOIN donations ON donated_foods.donation_id = donations.id
		WHERE donations.created_at BETWEEN ? AND ?
		GROUP BY donated_foods.category, donated_foods.unit_of_measure
		ORDER BY total_quantity DESC`, startDate, endDate).
		Scan(&rows).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"data": rows})
}

// reportRange parses the mandatory start_date/end_date query params.
// end_date is pushed to the end of its day so the range is inclusive.
func reportRange(ctx iris.Context) (time.Time, time.Time, bool) {
	const layout = "2006-01-02"

	start, startErr := time.Parse(layout, ctx.URLParam("start_date"))
	end, endErr := time.Parse(layout, ctx.URLParam("end_date"))
	if startErr != nil || endErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request",
			"start_date and end_date are required, formatted YYYY-MM-DD.", ctx)
		return time.Time{}, time.Time{}, false
	}

	if end.Before(start) {
		utils.CreateError(iris.StatusBadRequest, "Bad Request",
			"end_date must not precede start_date.", ctx)
		return time.Time{}, time.Time{}, false
	}

	return start, end.Add(24*time.Hour - time.Second), true
}
