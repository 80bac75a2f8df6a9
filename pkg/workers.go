package converter

import (
	"fmt"
	"sync"
)

type fitJob struct {
	Pixel Pixel
	ADC   []float64
}

type fitResult struct {
	Pixel  Pixel
	Params Params
	Err    error
}

func fitWorker(id int, charges []float64, opts FitOptions, jobs <-chan fitJob, results chan<- fitResult) {
	for job := range jobs {
		results <- fitPixel(id, charges, opts, job)
	}
}

func fitPixel(id int, charges []float64, opts FitOptions, job fitJob) (result fitResult) {
	defer func() {
		if r := recover(); r != nil {
			result = fitResult{
				Pixel:  job.Pixel,
				Params: opts.Initial,
				Err:    fmt.Errorf("fit worker %d recovered from panic on pixel (%d, %d): %v", id, job.Pixel.Col, job.Pixel.Row, r),
			}
		}
	}()
	params, err := FitResponse(charges, job.ADC, opts)
	return fitResult{Pixel: job.Pixel, Params: params, Err: err}
}

func sendPixelsToWorkers(source *CalibrationSource, jobs chan<- fitJob) {
	for _, response := range source.Pixels {
		jobs <- fitJob{Pixel: response.Pixel, ADC: response.ADC}
	}
	close(jobs)
}

// fitAllPixels fits every pixel of the source using numWorkers goroutines.
// Results arrive in completion order.
func fitAllPixels(source *CalibrationSource, opts FitOptions, numWorkers int) <-chan fitResult {
	if numWorkers < 1 {
		numWorkers = 1
	}
	jobs := make(chan fitJob, numWorkers)
	results := make(chan fitResult, numWorkers)

	var wg sync.WaitGroup
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			fitWorker(id, source.Charges, opts, jobs, results)
		}(w)
	}
	go sendPixelsToWorkers(source, jobs)
	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}
