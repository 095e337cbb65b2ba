package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tokodash/internal/dataset"
)

const (
	defaultOutput = "outputs/shop"
	defaultSeed   = int64(20260224)
	defaultEnd    = "2018-08-29 15:00:37"
)

type weighted struct {
	value  string
	weight int
}

// Shares roughly follow the public Olist e-commerce dataset.
var (
	stateWeights = []weighted{
		{"SP", 4175}, {"RJ", 1285}, {"MG", 1164}, {"RS", 547}, {"PR", 504}, {"SC", 363},
		{"BA", 338}, {"DF", 214}, {"ES", 203}, {"GO", 202}, {"PE", 165}, {"CE", 134},
		{"PA", 98}, {"MT", 91}, {"MA", 75}, {"MS", 72}, {"PB", 54}, {"PI", 50},
		{"RN", 49}, {"AL", 41}, {"SE", 35}, {"TO", 28}, {"RO", 25}, {"AM", 15},
		{"AC", 8}, {"AP", 7}, {"RR", 5},
	}
	statusWeights = []weighted{
		{"delivered", 9648}, {"shipped", 111}, {"canceled", 63}, {"unavailable", 61},
		{"invoiced", 31}, {"processing", 30}, {"created", 1}, {"approved", 1},
	}
	paymentWeights = []weighted{
		{"credit_card", 7680}, {"boleto", 1978}, {"voucher", 578}, {"debit_card", 153},
	}
	scoreWeights = []weighted{
		{"5", 5770}, {"4", 1940}, {"1", 1150}, {"3", 820}, {"2", 320},
	}
	cities = map[string][]string{
		"SP": {"sao paulo", "campinas", "guarulhos", "santo andre"},
		"RJ": {"rio de janeiro", "niteroi", "nova iguacu"},
		"MG": {"belo horizonte", "uberlandia", "contagem"},
	}
)

type options struct {
	customers   int
	repeatShare float64
	span        time.Duration
	end         time.Time
}

func main() {
	outDir := flag.String("output", defaultOutput, "Output directory for the CSV files")
	seed := flag.Int64("seed", defaultSeed, "Deterministic generator seed")
	customers := flag.Int("customers", 5000, "Number of customers to generate")
	repeat := flag.Float64("repeat", 0.03, "Share of customers with more than one order")
	days := flag.Int("days", 720, "Days of order history before -end")
	end := flag.String("end", defaultEnd, "Timestamp of the latest possible purchase")
	flag.Parse()

	endAt, err := dataset.ParseTimestamp(*end)
	if err != nil {
		fatalf("invalid -end: %v", err)
	}
	if *customers <= 0 || *days <= 0 || *repeat < 0 || *repeat > 1 {
		fatalf("-customers and -days must be positive and -repeat within [0,1]")
	}

	rng := rand.New(rand.NewSource(*seed))
	tables := generate(rng, options{
		customers:   *customers,
		repeatShare: *repeat,
		span:        time.Duration(*days) * 24 * time.Hour,
		end:         endAt,
	})
	if err := dataset.WriteCSVDir(*outDir, dataset.DefaultFiles(), tables); err != nil {
		fatalf("write csv error: %v", err)
	}

	fmt.Printf("Output: %s\n", *outDir)
	fmt.Printf("Seed:   %d\n", *seed)
	for _, name := range dataset.TableNames {
		fmt.Printf("  %-18s %d rows\n", name, tables.Counts()[name])
	}
}

func generate(rng *rand.Rand, opt options) *dataset.Tables {
	t := &dataset.Tables{}
	start := opt.end.Add(-opt.span)

	for i := 0; i < opt.customers; i++ {
		state := pick(rng, stateWeights)
		c := dataset.Customer{
			ID:        hexID(rng),
			UniqueID:  hexID(rng),
			ZipPrefix: fmt.Sprintf("%05d", rng.Intn(99999)+1),
			City:      city(rng, state),
			State:     state,
		}
		t.Customers = append(t.Customers, c)

		n := 1
		if rng.Float64() < opt.repeatShare {
			n += 1 + rng.Intn(3)
		}
		for j := 0; j < n; j++ {
			o := dataset.Order{
				ID:          hexID(rng),
				CustomerID:  c.ID,
				Status:      pick(rng, statusWeights),
				PurchasedAt: start.Add(time.Duration(rng.Int63n(int64(opt.span)))).Truncate(time.Second),
			}
			t.Orders = append(t.Orders, o)
			t.OrdersCustomers = append(t.OrdersCustomers, dataset.OrderCustomer{
				OrderID:    o.ID,
				CustomerID: c.ID,
				Status:     o.Status,
				State:      c.State,
			})
			t.Payments = append(t.Payments, payments(rng, o.ID)...)
			if o.Status == "delivered" || rng.Float64() < 0.5 {
				score, _ := strconv.Atoi(pick(rng, scoreWeights))
				t.Reviews = append(t.Reviews, dataset.Review{ID: hexID(rng), OrderID: o.ID, Score: score})
			}
		}
	}
	// Last order lands exactly on the end so the RFM window is anchored there.
	if len(t.Orders) > 0 {
		t.Orders[len(t.Orders)-1].PurchasedAt = opt.end
	}
	return t
}

func payments(rng *rand.Rand, orderID string) []dataset.Payment {
	typ := pick(rng, paymentWeights)
	total := 10 + rng.ExpFloat64()*150
	p := dataset.Payment{OrderID: orderID, Sequential: 1, Type: typ, Installments: 1, Value: round2(total)}
	if typ == "credit_card" {
		p.Installments = 1 + rng.Intn(10)
	}
	out := []dataset.Payment{p}
	if typ != "voucher" && rng.Float64() < 0.04 {
		v := round2(total * 0.2)
		out[0].Value = round2(total - v)
		out = append(out, dataset.Payment{OrderID: orderID, Sequential: 2, Type: "voucher", Installments: 1, Value: v})
	}
	return out
}

func pick(rng *rand.Rand, ws []weighted) string {
	total := 0
	for _, w := range ws {
		total += w.weight
	}
	n := rng.Intn(total)
	for _, w := range ws {
		if n < w.weight {
			return w.value
		}
		n -= w.weight
	}
	return ws[len(ws)-1].value
}

func city(rng *rand.Rand, state string) string {
	if cs, ok := cities[state]; ok {
		return cs[rng.Intn(len(cs))]
	}
	return strings.ToLower(state) + " capital"
}

// hexID draws a 32-character id in the dataset's style from rng.
func hexID(rng *rand.Rand) string {
	u, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		fatalf("generate id: %v", err)
	}
	return strings.ReplaceAll(u.String(), "-", "")
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func fatalf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}
