// Copyright 2025 go-darknet Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bindgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"load_network", "LoadNetwork"},
		{"network", "Network"},
		{"LOGISTIC", "Logistic"},
		{"SECRET_NUM", "SecretNum"},
		{"getNetworkOutput", "GetNetworkOutput"},
		{"free_ptrs", "FreePtrs"},
		{"__darknet_private", "DarknetPrivate"},
		{"network_predict_ptr", "NetworkPredictPtr"},
		{"YOLO", "Yolo"},
		{"_", ""},
		{"", ""},
		{"_3d", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GoName(tt.in), tt.in)
	}
}

func TestParamName(t *testing.T) {
	tests := []struct {
		in    string
		index int
		want  string
	}{
		{"net", 0, "net"},
		{"", 0, "arg0"},
		{"", 12, "arg12"},
		{"type", 1, "type_"},
		{"func", 1, "func_"},
		{"range", 2, "range_"},
		{"C", 0, "C_"},
		{"unsafe", 0, "unsafe_"},
		{"len", 0, "len"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParamName(tt.in, tt.index), tt.in)
	}
}

func TestUsesUnsafe(t *testing.T) {
	h := &Header{Functions: []Function{{Name: "F", CName: "f", Params: []Param{{Name: "a", Type: "C.int"}}}}}
	assert.False(t, h.UsesUnsafe())

	h.Functions[0].Params = append(h.Functions[0].Params, Param{Name: "p", Type: "unsafe.Pointer"})
	assert.True(t, h.UsesUnsafe())

	h = &Header{Functions: []Function{{Name: "G", CName: "g", Result: "unsafe.Pointer"}}}
	assert.True(t, h.UsesUnsafe())
}
