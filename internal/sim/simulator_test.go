package sim_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cartbox/internal/scene"
	"github.com/san-kum/cartbox/internal/sim"
)

type countMetric struct {
	count int
	peak  float64
}

func (m *countMetric) Name() string { return "test" }
func (m *countMetric) Observe(s sim.Sample) {
	m.count++
	m.peak = math.Max(m.peak, s.Speed)
}
func (m *countMetric) Value() float64 { return m.peak }
func (m *countMetric) Reset()         { m.count, m.peak = 0, 0 }

var _ = Describe("Simulator", func() {
	var (
		p   scene.Params
		cfg sim.Config
	)

	BeforeEach(func() {
		p = scene.DefaultParams()
		cfg = sim.Config{Dt: 1.0 / 60, Duration: 60, StopOnComplete: true}
	})

	DescribeTable("rejects invalid configs",
		func(mod func(*sim.Config)) {
			mod(&cfg)
			_, err := sim.New(scene.DefaultOptions()).Run(context.Background(), p, cfg)
			Expect(err).To(HaveOccurred())
		},
		Entry("zero dt", func(c *sim.Config) { c.Dt = 0 }),
		Entry("negative dt", func(c *sim.Config) { c.Dt = -0.1 }),
		Entry("zero duration", func(c *sim.Config) { c.Duration = 0 }),
		Entry("negative sample interval", func(c *sim.Config) { c.SampleEvery = -1 }),
		Entry("command before zero", func(c *sim.Config) {
			c.Commands = []sim.Command{{At: -1, Action: "start"}}
		}),
	)

	It("runs the reference scenario to completion", func() {
		s := sim.New(scene.DefaultOptions())
		metric := &countMetric{}
		s.AddMetric(metric)

		res, err := s.Run(context.Background(), p, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Completed).To(BeTrue())
		Expect(res.CompletedAt).To(BeNumerically(">", 5))
		Expect(res.Errors).To(BeEmpty())
		Expect(res.StepsTaken).To(BeNumerically("<", 60*60), "should stop early on completion")
		Expect(metric.count).To(Equal(res.StepsTaken))
		Expect(res.Metrics["test"]).To(BeNumerically("~", p.MaxSpeed, 0.5))

		final := res.Final()
		Expect(final.Phase).To(Equal("paused"))
		Expect(final.Braking).To(BeTrue())
		Expect(final.Distance).To(BeNumerically(">=", p.TargetDistance))
		Expect(final.BoxY).To(BeNumerically(">", final.CartY))
	})

	It("keeps every n-th sample", func() {
		cfg = sim.Config{Dt: 0.01, Duration: 1, SampleEvery: 10}
		res, err := sim.New(scene.DefaultOptions()).Run(context.Background(), p, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StepsTaken).To(Equal(100))
		Expect(res.Samples).To(HaveLen(11))
		Expect(res.Final().Time).To(BeNumerically("~", 1, 1e-9))
	})

	It("plays timed commands and records rejected ones", func() {
		cfg = sim.Config{
			Dt:       0.01,
			Duration: 3,
			Commands: []sim.Command{
				{At: 2, Action: "reset"},
				{At: 0, Action: "start"},
				{At: 1, Action: "stop"},
				{At: 1.5, Action: "start"},
				{At: 1.6, Action: "jump"},
			},
		}
		var phases []string
		s := sim.New(scene.DefaultOptions())
		s.AddObserver(sim.ObserverFunc(func(smp sim.Sample) {
			if len(phases) == 0 || phases[len(phases)-1] != smp.Phase {
				phases = append(phases, smp.Phase)
			}
		}))

		res, err := s.Run(context.Background(), p, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(phases).To(Equal([]string{"running", "paused", "settling", "idle"}))
		Expect(res.Errors).To(HaveLen(2))
		Expect(res.Errors[0].Error()).To(ContainSubstring("invalid phase transition"))
		Expect(res.Errors[1].Error()).To(ContainSubstring("unknown command"))
	})

	It("stops when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := sim.New(scene.DefaultOptions()).Run(ctx, p, cfg)
		Expect(err).To(MatchError(context.Canceled))
		Expect(res.StepsTaken).To(BeZero())
	})

	Describe("Ensemble", func() {
		It("returns results in input order", func() {
			slow, fast := p, p
			slow.MaxSpeed = 4
			fast.MaxSpeed = 12

			e := sim.NewEnsemble(scene.DefaultOptions(), func() []sim.Metric {
				return []sim.Metric{&countMetric{}}
			}, 2)
			cfg.Duration = 10
			cfg.StopOnComplete = false

			results, err := e.Run(context.Background(), []scene.Params{slow, fast, p}, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].Metrics["test"]).To(BeNumerically("<", 4.5))
			Expect(results[1].Metrics["test"]).To(BeNumerically(">", 10.5))
		})

		It("fails when any run fails", func() {
			cfg.Dt = 0
			_, err := sim.NewEnsemble(scene.DefaultOptions(), nil, 0).
				Run(context.Background(), []scene.Params{p, p}, cfg)
			Expect(err).To(HaveOccurred())
		})
	})

	DescribeTable("Sample.IsValid",
		func(s sim.Sample, valid bool) {
			Expect(s.IsValid()).To(Equal(valid))
		},
		Entry("zero", sim.Sample{}, true),
		Entry("normal", sim.Sample{CartX: 3, BoxY: 1.35}, true),
		Entry("NaN", sim.Sample{CartX: math.NaN()}, false),
		Entry("+Inf", sim.Sample{BoxVX: math.Inf(1)}, false),
	)
})
