// runnerctl is an operator tool for inspecting and seeding the order store.
//
//	runnerctl -db runner.db -mode orders -view available
//	runnerctl -db runner.db -mode earnings -runner 1
//	runnerctl -db runner.db -mode seed -count 10
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	"runnerDispatch/internal/db"
	"runnerDispatch/models"
	"runnerDispatch/repository"
)

func main() {
	var (
		dbPath   = flag.String("db", "runner.db", "SQLite database file")
		mode     = flag.String("mode", "orders", "orders | earnings | seed")
		view     = flag.String("view", "available", "order view: available | active | completed")
		runnerID = flag.Int64("runner", 0, "runner id for active/completed/earnings")
		count    = flag.Int("count", 10, "number of demo orders to seed")
	)
	flag.Parse()

	d, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ordersRepo := repository.NewOrderRepository(d, nil)
	earningsRepo := repository.NewEarningsRepository(d)
	merchantsRepo := repository.NewMerchantRepository(d)

	switch *mode {
	case "orders":
		if err := printOrders(ctx, ordersRepo, *view, *runnerID); err != nil {
			log.Fatalf("list orders: %v", err)
		}
	case "earnings":
		if err := printEarnings(ctx, earningsRepo, *runnerID); err != nil {
			log.Fatalf("list earnings: %v", err)
		}
	case "seed":
		if err := seed(ctx, ordersRepo, merchantsRepo, *count); err != nil {
			log.Fatalf("seed: %v", err)
		}
		log.Printf("seeded %d demo orders", *count)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func printOrders(ctx context.Context, repo *repository.OrderRepository, view string, runnerID int64) error {
	var (
		rows []models.Order
		err  error
	)
	switch view {
	case "available":
		rows, err = repo.ListAvailable(ctx)
	case "active":
		rows, err = repo.ListActive(ctx, runnerID)
	case "completed":
		rows, err = repo.ListCompleted(ctx, runnerID)
	default:
		return fmt.Errorf("unknown view %q", view)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tSTATUS\tPAYMENT\tRUNNER\tTOTAL\tCREATED")
	for _, o := range rows {
		runner := "-"
		if o.RunnerID != nil {
			runner = fmt.Sprintf("%d", *o.RunnerID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			o.ID, o.OrderNumber, o.Status, o.PaymentStatus, runner, o.TotalAmount, o.CreatedAt)
	}
	return tw.Flush()
}

func printEarnings(ctx context.Context, repo *repository.EarningsRepository, runnerID int64) error {
	if runnerID == 0 {
		return fmt.Errorf("-runner is required for earnings")
	}
	rows, err := repo.ListByRunner(ctx, runnerID)
	if err != nil {
		return err
	}
	total, err := repo.TotalForRunner(ctx, runnerID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tORDER\tBASE\tTIP\tBONUS\tTOTAL\tCREATED")
	for _, e := range rows {
		fmt.Fprintf(tw, "%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n",
			e.ID, e.OrderID, e.BaseFee, e.Tip, e.Bonus, e.Total, e.CreatedAt)
	}
	fmt.Fprintf(tw, "\t\t\t\t\tsum %.2f\t\n", total)
	return tw.Flush()
}

var demoMerchants = []struct{ name, location string }{
	{"Campus Noodle Bar", "Student Union, Level 1"},
	{"Greenhouse Salads", "Science Quad Kiosk"},
	{"Night Owl Pizza", "West Gate Arcade"},
}

var demoItems = []struct {
	name  string
	price float64
}{
	{"Spicy Ramen", 9.50},
	{"Falafel Wrap", 7.00},
	{"Margherita Slice", 4.25},
	{"Iced Matcha", 5.75},
	{"Bubble Tea", 6.00},
}

func seed(ctx context.Context, ordersRepo *repository.OrderRepository, merchantsRepo *repository.MerchantRepository, count int) error {
	merchantIDs := make([]int64, 0, len(demoMerchants))
	for _, m := range demoMerchants {
		created, err := merchantsRepo.Create(ctx, m.name, m.location, "")
		if err != nil {
			return err
		}
		merchantIDs = append(merchantIDs, created.ID)
	}

	for i := 0; i < count; i++ {
		item := demoItems[rand.Intn(len(demoItems))]
		qty := 1 + rand.Intn(3)
		subtotal := float64(qty) * item.price
		fee := 3.50
		o := &models.Order{
			Status:        models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusPaid,
			MerchantID:    merchantIDs[rand.Intn(len(merchantIDs))],
			CustomerName:  fmt.Sprintf("Student %02d", i+1),
			CustomerPhone: fmt.Sprintf("+1555%07d", rand.Intn(10000000)),
			CollectionPin: fmt.Sprintf("%04d", rand.Intn(10000)),
			DeliveryPin:   fmt.Sprintf("%04d", rand.Intn(10000)),
			Subtotal:      subtotal,
			DeliveryFee:   fee,
			TotalAmount:   subtotal + fee,
		}
		created, err := ordersRepo.Create(ctx, o)
		if err != nil {
			return err
		}
		if err := ordersRepo.AddItem(ctx, &models.OrderItem{
			OrderID:   created.ID,
			Name:      item.name,
			Quantity:  qty,
			UnitPrice: item.price,
		}); err != nil {
			return err
		}
		if err := ordersRepo.SetAddress(ctx, &models.DeliveryAddress{
			OrderID:  created.ID,
			Building: fmt.Sprintf("Dorm %c", 'A'+rand.Intn(4)),
			Room:     fmt.Sprintf("%d%02d", 1+rand.Intn(5), rand.Intn(40)),
		}); err != nil {
			return err
		}
	}
	return nil
}
