// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"math"
	"os"
	"strconv"
)

var (
	cacheBudget = calcCacheBudget()
	cacheDir    = os.Getenv("MACSHIM_CACHE_DIR") // --cache-dir overrides
	sampleRate  = calcSampleRate()
)

func calcCacheBudget() int64 {
	if e := os.Getenv("MACSHIM_CACHE_MB"); e != "" {
		f, err := strconv.ParseFloat(e, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			panic("malformed MACSHIM_CACHE_MB environment variable, should be a number of megabytes: " + e)
		}
		return int64(f * 1024 * 1024)
	}
	return 64 * 1024 * 1024
}

func calcSampleRate() int {
	if e := os.Getenv("MACSHIM_RATE"); e != "" {
		n, err := strconv.Atoi(e)
		if err != nil || n < 8000 || n > 192000 {
			panic("malformed MACSHIM_RATE environment variable, should be a sample rate in Hz: " + e)
		}
		return n
	}
	return 44100
}
