package converter

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Hits closer than this in both column and row belong to the same cluster.
const AdjacencyDistance = 2

type Hit struct {
	X      int
	Y      int
	Charge float64
}

func (h Hit) String() string {
	return fmt.Sprintf("Hit: %d %d, Charge: %1.2fvcal", h.X, h.Y, h.Charge)
}

func Adjacent(a, b Hit) bool {
	return abs(a.X-b.X) <= AdjacencyDistance && abs(a.Y-b.Y) <= AdjacencyDistance
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type Cluster struct {
	Hits []Hit
}

func (c *Cluster) String() string {
	return fmt.Sprintf("Cluster of size %d, Charge: %v", c.Size(), c.Charge())
}

func (c *Cluster) Size() int {
	return len(c.Hits)
}

func (c *Cluster) Charge() float64 {
	return floats.Sum(c.charges())
}

// Seed returns the hit with the highest charge, the first one on ties.
func (c *Cluster) Seed() Hit {
	seed := c.Hits[0]
	for _, hit := range c.Hits[1:] {
		if hit.Charge > seed.Charge {
			seed = hit
		}
	}
	return seed
}

// Centroid returns the charge weighted mean position of the cluster.
func (c *Cluster) Centroid() (float64, float64, error) {
	weights := c.charges()
	if floats.Sum(weights) == 0 {
		return 0, 0, &ZeroChargeError{Size: c.Size()}
	}
	xs := make([]float64, len(c.Hits))
	ys := make([]float64, len(c.Hits))
	for i, hit := range c.Hits {
		xs[i] = float64(hit.X)
		ys[i] = float64(hit.Y)
	}
	return stat.Mean(xs, weights), stat.Mean(ys, weights), nil
}

func (c *Cluster) charges() []float64 {
	charges := make([]float64, len(c.Hits))
	for i, hit := range c.Hits {
		charges[i] = hit.Charge
	}
	return charges
}

type scanFrame struct {
	hit  int
	next int
}

// Clusterize partitions hits into maximal groups connected through Adjacent.
// The first unclaimed hit in input order seeds each cluster, and clusters are
// returned in seed order. Within a cluster, hits are absorbed depth first:
// each newly absorbed hit scans the whole hit list for unclaimed neighbours
// before its parent resumes scanning.
func Clusterize(hits []Hit) []Cluster {
	claimed := make([]bool, len(hits))
	clusters := make([]Cluster, 0)
	stack := make([]scanFrame, 0)

	for i := range hits {
		if claimed[i] {
			continue
		}
		claimed[i] = true
		cluster := Cluster{Hits: []Hit{hits[i]}}
		stack = append(stack[:0], scanFrame{hit: i})

		for len(stack) > 0 {
			top := len(stack) - 1
			found := -1
			for j := stack[top].next; j < len(hits); j++ {
				if !claimed[j] && Adjacent(hits[stack[top].hit], hits[j]) {
					found = j
					break
				}
			}
			if found < 0 {
				stack = stack[:top]
				continue
			}
			stack[top].next = found + 1
			claimed[found] = true
			cluster.Hits = append(cluster.Hits, hits[found])
			stack = append(stack, scanFrame{hit: found})
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}
