// Copyright (c) 2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/ransim/ran-ns/rantester"
)

func TestAddUes(t *testing.T) {
	rt := rantester.Instance(t)
	testAddUes(rt)
	rt.Reset()
}

func testAddUes(test *rantester.RanTest) {
	test.Start("testAddUes")

	cell := test.AddCell(0, 0)
	ue1 := test.AddUe(cell, 100, 50, 12)
	ue2 := test.AddUe(cell, -80, 20, 7)
	test.Go(time.Millisecond * 20)

	ues := test.ListUes()
	test.ExpectEqual(2, len(ues))
	test.ExpectEqual(cell, ues[ue1].Cell)
	test.ExpectEqual(100.0, ues[ue1].X)
	test.ExpectEqual(50.0, ues[ue1].Y)
	test.ExpectEqual(12, ues[ue1].CqiDl)
	test.ExpectEqual(7, ues[ue2].CqiDl)

	test.DeleteUe(ue1)
	ues = test.ListUes()
	test.ExpectEqual(1, len(ues))
	_, ok := ues[ue2]
	test.ExpectTrue(ok)
}

func TestFlowsDeliver(t *testing.T) {
	rt := rantester.Instance(t)
	testFlowsDeliver(rt)
	rt.Reset()
}

func testFlowsDeliver(test *rantester.RanTest) {
	test.Start("testFlowsDeliver")

	cell := test.AddCell(1000, 0)
	dl := test.AddUe(cell, 1050, 0, 15)
	ul := test.AddUe(cell, 950, 0, 15)
	test.AddFlow(dl, "dl", 100000)
	test.AddFlow(ul, "ul", 50000)
	test.Go(time.Second)

	flows := test.ListFlows()
	test.ExpectEqual(2, len(flows))
	for _, f := range flows {
		test.ExpectTrue(f.Sent > 0, "flow %d:%d sent nothing", f.Ue, f.Lcid)
		test.ExpectTrue(f.Delivered > 0, "flow %d:%d delivered nothing", f.Ue, f.Lcid)
		test.ExpectTrue(f.Delivered <= f.Sent)
	}
}

func TestDisciplines(t *testing.T) {
	rt := rantester.Instance(t)
	testDisciplines(rt)
	rt.Reset()
}

func testDisciplines(test *rantester.RanTest) {
	test.Start("testDisciplines")

	cell := test.AddCell(2000, 0)
	var ues []int
	for i, cqi := range []int{3, 9, 15} {
		ue := test.AddUe(cell, 2000+50*(i+1), 0, cqi)
		test.AddFlow(ue, "dl", 200000)
		ues = append(ues, ue)
	}

	for _, sched := range []string{"maxci", "pf", "drr"} {
		test.Commandf("sched %s", sched)
		test.ExpectEqual([]string{sched}, test.Command("sched"))
		test.Go(time.Millisecond * 200)
	}

	delivered := map[int]uint64{}
	for _, f := range test.ListFlows() {
		delivered[f.Ue] += f.Delivered
	}
	for _, ue := range ues {
		test.ExpectTrue(delivered[ue] > 0, "UE %d starved", ue)
	}
}

func TestRemoteControl(t *testing.T) {
	rt := rantester.Instance(t)
	testRemoteControl(rt)
	rt.Reset()
}

func testRemoteControl(test *rantester.RanTest) {
	test.Start("testRemoteControl")

	cell := test.AddCell(3000, 0)
	ue := test.AddUe(cell, 3010, 0, 10)

	out := test.RemoteCommand("ues")
	test.ExpectTrue(strings.Contains(out, "cqi_dl: 10"), out)
	test.ExpectTrue(strings.HasSuffix(out, "Done\n"), out)

	test.AddFlow(ue, "dl", 80000)
	test.Go(time.Millisecond * 500)

	kpi := test.Kpi()
	test.ExpectEqual("ok", kpi["status"])
	flows, ok := kpi["flows"].(map[string]interface{})
	test.ExpectTrue(ok)
	test.ExpectTrue(len(flows) >= 1)
}
