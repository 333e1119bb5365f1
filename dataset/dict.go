// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

// FreqDict assigns ids to strings in order of appearance and counts occurrences.
type FreqDict struct {
	si  map[string]int
	is  []string
	cnt []int
}

func NewFreqDict() (d *FreqDict) {
	d = &FreqDict{map[string]int{}, []string{}, []int{}}
	return
}

// Id returns the id of s and counts one occurrence.
func (d *FreqDict) Id(s string) (y int) {
	if y, ok := d.si[s]; ok {
		d.cnt[y]++
		return y
	}

	y = len(d.is)
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 1)
	return
}

// MostFrequent returns the string with the highest count. Ties resolve to the
// lexicographically smallest string.
func (d *FreqDict) MostFrequent() (string, bool) {
	best := -1
	for id, s := range d.is {
		if best < 0 || d.cnt[id] > d.cnt[best] || (d.cnt[id] == d.cnt[best] && s < d.is[best]) {
			best = id
		}
	}
	if best < 0 {
		return "", false
	}
	return d.is[best], true
}
