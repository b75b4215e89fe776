package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/kardianos/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"ptz-cli/internal/config"
	"ptz-cli/pkg/ptz"
)

// Variables to hold flag values
var (
	expProtocol   string
	expHost       string
	expPort       int
	expUser       string
	expPass       string
	expAuth       string
	expListenPort string
	serviceAction string // "install", "uninstall", "start", "stop"
)

// --- SERVICE WRAPPER ---

// program implements the kardianos/service interface
type program struct {
	exit   chan struct{}
	server *http.Server
	cam    config.Camera
}

func (p *program) Start(s service.Service) error {
	// Start should not block. Do the actual work async.
	p.exit = make(chan struct{})
	go p.run()
	return nil
}

func (p *program) run() {
	// Connect once up front so credential problems surface immediately.
	// The ONVIF backend dials here; exiting lets the service manager
	// restart us on transient failures.
	log.Printf("Connecting to %s camera at %s...", p.cam.Protocol, p.cam.Host)
	ctrl, err := newController(context.Background(), p.cam)
	if err != nil {
		log.Printf("Fatal: initial connection failed: %v", err)
		os.Exit(1)
	}
	log.Println("Initial connection successful.")

	registry := prometheus.NewRegistry()
	collector := &PTZCollector{
		Controller: ctrl,
		Host:       p.cam.Host,
		Protocol:   p.cam.Protocol,
	}
	registry.MustRegister(collector)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	addr := fmt.Sprintf(":%s", expListenPort)
	p.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	log.Printf("PTZ exporter listening on %s", addr)

	if err := p.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("HTTP server error: %v", err)
	}
}

func (p *program) Stop(s service.Service) error {
	// Stop should not block. Signal the app to stop.
	log.Println("Stopping service...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
		}
	}
	close(p.exit)
	return nil
}

// --- COLLECTOR LOGIC ---

// PTZCollector scrapes the camera position on every Prometheus scrape.
type PTZCollector struct {
	Controller ptz.Controller
	Host       string
	Protocol   string
	Mutex      sync.Mutex
}

var (
	upDesc = prometheus.NewDesc(
		"ptz_up", "Was the last scrape successful.", nil, nil,
	)
	scrapeDurationDesc = prometheus.NewDesc(
		"ptz_scrape_duration_seconds", "Time taken to query the camera.", nil, nil,
	)
	panDesc = prometheus.NewDesc(
		"ptz_position_pan", "Current pan position in the device's native range.", []string{"host", "protocol"}, nil,
	)
	tiltDesc = prometheus.NewDesc(
		"ptz_position_tilt", "Current tilt position in the device's native range.", []string{"host", "protocol"}, nil,
	)
	zoomDesc = prometheus.NewDesc(
		"ptz_position_zoom", "Current zoom level in the device's native range.", []string{"host", "protocol"}, nil,
	)
)

func (c *PTZCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- upDesc
	ch <- scrapeDurationDesc
	ch <- panDesc
	ch <- tiltDesc
	ch <- zoomDesc
}

func (c *PTZCollector) Collect(ch chan<- prometheus.Metric) {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()
	start := time.Now()
	success := 1.0

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pos, err := c.Controller.Status(ctx)
	if err != nil {
		success = 0.0
		log.Printf("Error scraping PTZ status: %v", err)
	} else {
		ch <- prometheus.MustNewConstMetric(panDesc, prometheus.GaugeValue, pos.Pan, c.Host, c.Protocol)
		ch <- prometheus.MustNewConstMetric(tiltDesc, prometheus.GaugeValue, pos.Tilt, c.Host, c.Protocol)
		ch <- prometheus.MustNewConstMetric(zoomDesc, prometheus.GaugeValue, pos.Zoom, c.Host, c.Protocol)
	}

	ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, success)
	ch <- prometheus.MustNewConstMetric(scrapeDurationDesc, prometheus.GaugeValue, time.Since(start).Seconds())
}

// --- COMMAND ---

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Start a Prometheus exporter for the camera position",
	Long: `Starts a long-running HTTP server that exposes the camera's
pan/tilt/zoom position as Prometheus gauges. Can be installed as a system
service.`,
	Run: func(cmd *cobra.Command, args []string) {
		cam := config.Camera{
			Protocol: expProtocol,
			Host:     expHost,
			Port:     expPort,
			Username: expUser,
			Password: expPass,
			Auth:     expAuth,
		}

		svcConfig := &service.Config{
			Name:        "ptz-exporter",
			DisplayName: "PTZ Camera Prometheus Exporter",
			Description: "Exposes PTZ camera position metrics to Prometheus",
			// Arguments passed to the binary when run as a service
			Arguments: []string{
				"exporter",
				"--protocol", expProtocol,
				"--host", expHost,
				"--username", expUser,
				"--password", expPass,
				"--listen-port", expListenPort,
			},
		}

		prg := &program{cam: cam}

		s, err := service.New(prg, svcConfig)
		if err != nil {
			log.Fatal(err)
		}

		if serviceAction != "" {
			if serviceAction == "install" {
				if expProtocol == "" || expHost == "" || expPass == "" {
					log.Fatal("Error: you must provide --protocol, --host and --password to install the service.")
				}
			}

			err = service.Control(s, serviceAction)
			if err != nil {
				log.Fatalf("Failed to %s service: %v", serviceAction, err)
			}
			fmt.Printf("Service action '%s' completed successfully.\n", serviceAction)
			return
		}

		// Run blocking; this is the path both for interactive use and when
		// the service manager starts the binary.
		logger, err := s.Logger(nil)
		if err != nil {
			log.Fatal(err)
		}
		if err = s.Run(); err != nil {
			logger.Error(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(exporterCmd)
	exporterCmd.Flags().StringVar(&expProtocol, "protocol", "", "Camera protocol: onvif, vapix or sunapi")
	exporterCmd.Flags().StringVar(&expHost, "host", "", "Camera hostname or IP address")
	exporterCmd.Flags().IntVar(&expPort, "port", 0, "Camera port (default 80)")
	exporterCmd.Flags().StringVar(&expUser, "username", "admin", "Camera username")
	exporterCmd.Flags().StringVar(&expPass, "password", "", "Camera password")
	exporterCmd.Flags().StringVar(&expAuth, "auth", "digest", "HTTP auth scheme for vapix/sunapi")
	exporterCmd.Flags().StringVar(&expListenPort, "listen-port", "9100", "Port to serve /metrics on")

	exporterCmd.Flags().StringVar(&serviceAction, "service", "", "Service action: install, uninstall, start, stop")
}
