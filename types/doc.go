/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package types provides the configuration of a groupby aggregation.

A Config can be built in code starting from NewConfig, or loaded from YAML:

	name: device_temp
	groupBy: [device]
	value: temperature
	aggregate: mean
	kind: f64
	channel: auto
	branches: 4

Keys missing from the document keep their NewConfig defaults. Validate reports
every problem at once.
*/
package types
