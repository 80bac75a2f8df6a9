package converter

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClusterize(t *testing.T) {
	Convey("Given the cluster engine", t, func() {

		Convey("When two diagonal neighbours fire", func() {
			clusters := Clusterize([]Hit{{X: 10, Y: 10, Charge: 5}, {X: 11, Y: 11, Charge: 5}})

			Convey("Then they form one cluster with the mean position", func() {
				So(clusters, ShouldHaveLength, 1)
				So(clusters[0].Size(), ShouldEqual, 2)
				So(clusters[0].Charge(), ShouldEqual, 10)
				x, y, err := clusters[0].Centroid()
				So(err, ShouldBeNil)
				So(x, ShouldAlmostEqual, 10.5)
				So(y, ShouldAlmostEqual, 10.5)
			})
		})

		Convey("When two hits are 4 pixels apart", func() {
			clusters := Clusterize([]Hit{{X: 10, Y: 10, Charge: 5}, {X: 14, Y: 14, Charge: 5}})

			Convey("Then they form two single hit clusters", func() {
				So(clusters, ShouldHaveLength, 2)
				So(clusters[0].Size(), ShouldEqual, 1)
				So(clusters[1].Size(), ShouldEqual, 1)
				So(clusters[0].Hits[0].X, ShouldEqual, 10)
				So(clusters[1].Hits[0].X, ShouldEqual, 14)
			})
		})

		Convey("When hits form a chain with steps of 2 pixels", func() {
			clusters := Clusterize([]Hit{{X: 0, Y: 0, Charge: 1}, {X: 2, Y: 2, Charge: 1}, {X: 4, Y: 4, Charge: 1}})

			Convey("Then the ends are joined through the middle hit", func() {
				So(Adjacent(Hit{X: 0, Y: 0}, Hit{X: 4, Y: 4}), ShouldBeFalse)
				So(clusters, ShouldHaveLength, 1)
				So(clusters[0].Size(), ShouldEqual, 3)
			})
		})

		Convey("When the event has no hits", func() {
			clusters := Clusterize(nil)

			Convey("Then there are no clusters", func() {
				So(clusters, ShouldBeEmpty)
			})
		})

		Convey("When a cluster has zero total charge", func() {
			clusters := Clusterize([]Hit{{X: 3, Y: 3, Charge: 0}})

			Convey("Then the centroid is undefined", func() {
				_, _, err := clusters[0].Centroid()
				var zeroCharge *ZeroChargeError
				So(errors.As(err, &zeroCharge), ShouldBeTrue)
				So(zeroCharge.Size, ShouldEqual, 1)
			})
		})

		Convey("When a neighbour is reachable both directly and through another hit", func() {
			hits := []Hit{
				{X: 0, Y: 0, Charge: 1},
				{X: 2, Y: 0, Charge: 2},
				{X: 4, Y: 0, Charge: 3},
				{X: 1, Y: 1, Charge: 4},
			}
			clusters := Clusterize(hits)

			Convey("Then hits are absorbed depth first", func() {
				So(clusters, ShouldHaveLength, 1)
				So(clusters[0].Hits, ShouldResemble, []Hit{hits[0], hits[1], hits[2], hits[3]})
			})
		})

		Convey("When clusters are interleaved in the hit list", func() {
			hits := []Hit{
				{X: 40, Y: 40, Charge: 1},
				{X: 0, Y: 0, Charge: 1},
				{X: 41, Y: 42, Charge: 1},
				{X: 1, Y: 2, Charge: 1},
			}
			clusters := Clusterize(hits)

			Convey("Then clusters are ordered by their first hit", func() {
				So(clusters, ShouldHaveLength, 2)
				So(clusters[0].Hits[0], ShouldResemble, hits[0])
				So(clusters[1].Hits[0], ShouldResemble, hits[1])
			})
		})

		Convey("When a cluster has hits of different charge", func() {
			cluster := Cluster{Hits: []Hit{{X: 1, Y: 5, Charge: 10}, {X: 2, Y: 6, Charge: 30}, {X: 3, Y: 5, Charge: 30}}}

			Convey("Then the centroid is charge weighted", func() {
				x, y, err := cluster.Centroid()
				So(err, ShouldBeNil)
				So(x, ShouldAlmostEqual, (1*10+2*30+3*30)/70.)
				So(y, ShouldAlmostEqual, (5*10+6*30+5*30)/70.)
			})

			Convey("And the seed is the first hit with the highest charge", func() {
				So(cluster.Seed(), ShouldResemble, Hit{X: 2, Y: 6, Charge: 30})
			})
		})
	})
}

func TestClusterizeProperties(t *testing.T) {
	Convey("Given random events", t, func() {
		rng := rand.New(rand.NewSource(42))

		for n := 0; n < 50; n++ {
			hits := randomHits(rng, 1+rng.Intn(60))
			clusters := Clusterize(hits)

			Convey(fmt.Sprintf("Event %d: clusters partition the hits", n), func() {
				var clustered []string
				for _, c := range clusters {
					So(c.Size(), ShouldBeGreaterThan, 0)
					for _, h := range c.Hits {
						clustered = append(clustered, hitKey(h))
					}
				}
				var input []string
				for _, h := range hits {
					input = append(input, hitKey(h))
				}
				sort.Strings(clustered)
				sort.Strings(input)
				So(clustered, ShouldResemble, input)
			})

			Convey(fmt.Sprintf("Event %d: every cluster is connected", n), func() {
				for _, c := range clusters {
					So(connected(c.Hits), ShouldBeTrue)
				}
			})

			Convey(fmt.Sprintf("Event %d: clusters are maximal", n), func() {
				for i := range clusters {
					for j := i + 1; j < len(clusters); j++ {
						for _, a := range clusters[i].Hits {
							for _, b := range clusters[j].Hits {
								So(Adjacent(a, b), ShouldBeFalse)
							}
						}
					}
				}
			})

			Convey(fmt.Sprintf("Event %d: the partition does not depend on hit order", n), func() {
				shuffled := append([]Hit(nil), hits...)
				shuffleRng := rand.New(rand.NewSource(int64(n)))
				shuffleRng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
				So(partitionKey(Clusterize(shuffled)), ShouldResemble, partitionKey(clusters))
			})

			Convey(fmt.Sprintf("Event %d: the same order gives the same clusters", n), func() {
				So(Clusterize(hits), ShouldResemble, clusters)
			})
		}
	})
}

// randomHits returns hits on distinct pixels of a 20x20 corner of the ROC.
func randomHits(rng *rand.Rand, n int) []Hit {
	used := make(map[Pixel]bool)
	hits := make([]Hit, 0, n)
	for len(hits) < n {
		p := Pixel{Col: rng.Intn(20), Row: rng.Intn(20)}
		if used[p] {
			continue
		}
		used[p] = true
		hits = append(hits, Hit{X: p.Col, Y: p.Row, Charge: 1 + math.Round(rng.Float64()*500)})
	}
	return hits
}

func hitKey(h Hit) string {
	return fmt.Sprintf("%d:%d:%v", h.X, h.Y, h.Charge)
}

func partitionKey(clusters []Cluster) []string {
	keys := make([]string, len(clusters))
	for i, c := range clusters {
		members := make([]string, len(c.Hits))
		for j, h := range c.Hits {
			members[j] = hitKey(h)
		}
		sort.Strings(members)
		keys[i] = strings.Join(members, ",")
	}
	sort.Strings(keys)
	return keys
}

func connected(hits []Hit) bool {
	reached := make([]bool, len(hits))
	reached[0] = true
	queue := []int{0}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for i := range hits {
			if !reached[i] && Adjacent(hits[current], hits[i]) {
				reached[i] = true
				queue = append(queue, i)
			}
		}
	}
	for _, r := range reached {
		if !r {
			return false
		}
	}
	return true
}
