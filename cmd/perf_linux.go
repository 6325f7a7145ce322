//go:build linux

/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	perf "github.com/hodgesds/perf-utils"
)

// startPerf opens hardware counters for the whole process and returns a stop
// function that prints the deltas. Requires perf_event_paranoid to allow it;
// failures degrade to a no-op.
func startPerf(enabled bool) func() {
	if !enabled {
		return func() {}
	}
	hwProf, err := perf.NewHardwareProfiler(os.Getpid(), -1,
		perf.CpuCyclesProfiler|perf.CpuInstrProfiler)
	if err != nil && hwProf == nil {
		fmt.Printf("perf counters unavailable: %s\n", err)
		return func() {}
	}
	if err = hwProf.Start(); err != nil {
		fmt.Printf("perf counters unavailable: %s\n", err)
		return func() {}
	}
	return func() {
		hwProfile := &perf.HardwareProfile{}
		if err := hwProf.Profile(hwProfile); err == nil {
			if hwProfile.CPUCycles != nil {
				fmt.Printf("%12d\t= CPU cycles\n", *hwProfile.CPUCycles)
			}
			if hwProfile.Instructions != nil {
				fmt.Printf("%12d\t= Instructions\n", *hwProfile.Instructions)
			}
		}
		hwProf.Stop()
		hwProf.Close()
	}
}
