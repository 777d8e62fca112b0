package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/model"
)

var (
	horses    = flag.Int("horses", 5, "Number of simulated collars")
	interval  = flag.Duration("interval", 2*time.Second, "Delay between report rounds")
	natsURL   = flag.String("nats", "nats://localhost:4222", "NATS server URL")
	subject   = flag.String("subject", "htk.uplink.LOCATION", "Uplink subject to publish to")
	centerLat = flag.Float64("lat", 47.2692, "Paddock center latitude")
	centerLon = flag.Float64("lon", 11.4041, "Paddock center longitude")
	radius    = flag.Float64("radius", 120, "Paddock radius in meters")
	escape    = flag.Float64("escape", 0.01, "Per-round probability that a horse bolts")
	silence   = flag.Float64("silence", 0.005, "Per-round probability that a collar goes quiet")
)

const metersPerDegree = 111320.0

// collar is one simulated GPS collar doing a random walk. A bolted
// horse heads away from the paddock center for a while; a quiet collar
// skips reporting so the daemon's offline detection has something to
// find.
type collar struct {
	id      string
	lat     float64
	lon     float64
	heading float64
	battery float64
	bolted  int
	quiet   int
}

func newCollar(i int) *collar {
	// Scatter the herd around the center.
	r := *radius * 0.5 * rand.Float64()
	theta := rand.Float64() * 2 * math.Pi

	return &collar{
		id:      fmt.Sprintf("SIM-%03d", i+1),
		lat:     *centerLat + offsetLat(r*math.Sin(theta)),
		lon:     *centerLon + offsetLon(r*math.Cos(theta), *centerLat),
		heading: rand.Float64() * 2 * math.Pi,
		battery: 70 + rand.Float64()*30,
	}
}

func offsetLat(meters float64) float64 {
	return meters / metersPerDegree
}

func offsetLon(meters, atLat float64) float64 {
	return meters / (metersPerDegree * math.Cos(atLat*math.Pi/180))
}

// distanceFromCenter is a flat-earth approximation, good enough at
// paddock scale.
func (c *collar) distanceFromCenter() float64 {
	dLat := (c.lat - *centerLat) * metersPerDegree
	dLon := (c.lon - *centerLon) * metersPerDegree * math.Cos(*centerLat*math.Pi/180)
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

// step advances the walk by one round and reports whether the collar
// produced a report this round.
func (c *collar) step() bool {
	if c.quiet > 0 {
		c.quiet--
		return false
	}
	if rand.Float64() < *silence {
		c.quiet = 5 + rand.Intn(10)
		return false
	}

	if c.bolted == 0 && rand.Float64() < *escape {
		// Bolt straight away from the center.
		c.bolted = 10 + rand.Intn(20)
		c.heading = math.Atan2(c.lat-*centerLat, c.lon-*centerLon)
	}

	speed := 3 + rand.Float64()*5
	c.heading += (rand.Float64() - 0.5) * 0.6

	if c.bolted > 0 {
		c.bolted--
		speed *= 2
	} else if c.distanceFromCenter() > *radius*0.8 {
		// Drift back toward the center when near the fence.
		c.heading = math.Atan2(*centerLat-c.lat, *centerLon-c.lon)
	}

	c.lat += offsetLat(speed * math.Sin(c.heading))
	c.lon += offsetLon(speed*math.Cos(c.heading), c.lat)

	c.battery -= 0.005 + rand.Float64()*0.01
	if c.battery < 1 {
		c.battery = 100
	}

	return true
}

func (c *collar) report() *model.LocationReport {
	accuracy := 2 + rand.Float64()*6
	battery := int(c.battery)

	return &model.LocationReport{
		CollarID:  c.id,
		Lat:       c.lat,
		Lon:       c.lon,
		Accuracy:  &accuracy,
		Battery:   &battery,
		Timestamp: time.Now().Unix(),
	}
}

func main() {
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("collar simulator started",
		zap.Int("horses", *horses),
		zap.Duration("interval", *interval),
		zap.String("nats", *natsURL),
		zap.String("subject", *subject),
		zap.Float64("escape_probability", *escape),
	)

	nc, err := nats.Connect(*natsURL)
	if err != nil {
		logger.Fatal("nats connect failed", zap.Error(err))
	}
	defer nc.Close()

	herd := make([]*collar, *horses)
	for i := range herd {
		herd[i] = newCollar(i)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(60 * time.Second)
	defer statsTicker.Stop()

	published := 0
	skipped := 0
	startTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			nc.Flush()
			logger.Info("simulator stopped",
				zap.Int("published", published),
				zap.Int("skipped", skipped),
				zap.Duration("uptime", time.Since(startTime)),
			)
			return

		case <-ticker.C:
			for _, c := range herd {
				if !c.step() {
					skipped++
					continue
				}

				data, err := json.Marshal(c.report())
				if err != nil {
					logger.Error("marshal report failed", zap.Error(err))
					continue
				}

				if err := nc.Publish(*subject, data); err != nil {
					logger.Error("publish failed", zap.String("collar", c.id), zap.Error(err))
					continue
				}
				published++

				if published%100 == 0 {
					logger.Info("reports published",
						zap.Int("count", published),
						zap.Float64("rate", float64(published)/time.Since(startTime).Seconds()),
					)
				}
			}

		case <-statsTicker.C:
			outside := 0
			for _, c := range herd {
				if c.distanceFromCenter() > *radius {
					outside++
				}
			}
			logger.Info("herd status",
				zap.Int("published", published),
				zap.Int("skipped", skipped),
				zap.Int("outside_fence", outside),
				zap.Duration("uptime", time.Since(startTime)),
			)
		}
	}
}
