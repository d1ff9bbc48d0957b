// Copyright 2023 SAP SE
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package db

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	statementCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pgcrud_statements_total",
		Help: "The total number of executed statements",
	}, []string{"operation", "outcome"})
)

func InitializePrometheus(reg prometheus.Registerer) {
	reg.MustRegister(statementCount)
	statementCount.WithLabelValues("query", "success").Add(0)
}

func observe(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	statementCount.WithLabelValues(operation, outcome).Inc()
}
