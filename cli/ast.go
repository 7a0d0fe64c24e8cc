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

package cli

import (
	"strconv"

	"github.com/alecthomas/participle"
)

// noinspection GoStructTag
type Command struct {
	Add      *AddCmd      `  @@` //nolint
	Cells    *CellsCmd    `| @@` //nolint
	Comp     *CompCmd     `| @@` //nolint
	Cqi      *CqiCmd      `| @@` //nolint
	Del      *DelCmd      `| @@` //nolint
	Exit     *ExitCmd     `| @@` //nolint
	Flow     *FlowCmd     `| @@` //nolint
	Flows    *FlowsCmd    `| @@` //nolint
	Go       *GoCmd       `| @@` //nolint
	Group    *GroupCmd    `| @@` //nolint
	Harq     *HarqCmd     `| @@` //nolint
	Help     *HelpCmd     `| @@` //nolint
	Kpi      *KpiCmd      `| @@` //nolint
	Load     *LoadCmd     `| @@` //nolint
	LogLevel *LogLevelCmd `| @@` //nolint
	Save     *SaveCmd     `| @@` //nolint
	Sched    *SchedCmd    `| @@` //nolint
	Speed    *SpeedCmd    `| @@` //nolint
	Stats    *StatsCmd    `| @@` //nolint
	Time     *TimeCmd     `| @@` //nolint
	Ues      *UesCmd      `| @@` //nolint
	Unwatch  *UnwatchCmd  `| @@` //nolint
	Watch    *WatchCmd    `| @@` //nolint
}

// noinspection GoStructTag
type GoCmd struct {
	Cmd   struct{}  `"go"`                                           //nolint
	Time  string    `( @((Int|Float)["h"|"us"|"m"|"ms"|"s"|"tti"]) ` //nolint
	Ever  *EverFlag `| @@ )`                                         //nolint
	Speed *float64  `[ "speed" (@Int|@Float) ]`                      //nolint
}

// noinspection GoStructTag
type NodeSelector struct {
	Id int `@Int` //nolint
}

func (ns *NodeSelector) String() string {
	return strconv.Itoa(ns.Id)
}

// noinspection GoStructTag
type SpeedCmd struct {
	Cmd   struct{}      `"speed"`               //nolint
	Max   *MaxSpeedFlag `( @@`                  //nolint
	Speed *float64      `| [ (@Int|@Float) ] )` //nolint
}

// noinspection GoStructTag
type TimeCmd struct {
	Cmd struct{} `"time"` //nolint
}

// noinspection GoStructTag
type AddCmd struct {
	Cmd  struct{}   `"add"`                //nolint
	Type NodeType   `@@`                   //nolint
	X    *float64   `( "x" (@Int|@Float) ` //nolint
	Y    *float64   `| "y" (@Int|@Float) ` //nolint
	Id   *AddNodeId `| @@`                 //nolint
	Cell *CellFlag  `| @@`                 //nolint
	Cqi  *CqiFlag   `| @@`                 //nolint
	D2d  *D2dFlag   `| @@`                 //nolint
	Comp *CompFlag  `| @@ )*`              //nolint
}

// noinspection GoStructTag
type NodeType struct {
	Val string `@("ue"|"cell")` //nolint
}

// noinspection GoStructTag
type AddNodeId struct {
	Val int `"id" @Int` //nolint
}

// noinspection GoStructTag
type CellFlag struct {
	Val int `"cell" @Int` //nolint
}

// noinspection GoStructTag
type CqiFlag struct {
	Val int `"cqi" @Int` //nolint
}

// noinspection GoStructTag
type D2dFlag struct {
	Dummy struct{} `"d2d"` //nolint
}

// noinspection GoStructTag
type CompFlag struct {
	Type        string         `"comp" @("client_coordinator"|"coordinator"|"client")` //nolint
	Coordinator *int           `( "coord" @Int`                                        //nolint
	Clients     []NodeSelector `| "clients" ( @@ )+ )*`                                //nolint
}

// noinspection MaxSpeedFlag
type MaxSpeedFlag struct {
	Dummy struct{} `( "max" | "inf")` //nolint
}

// noinspection GoStructTag
type DelCmd struct {
	Cmd   struct{}       `"del"`   //nolint
	Nodes []NodeSelector `( @@ )+` //nolint
}

// noinspection GoStructTag
type EverFlag struct {
	Dummy struct{} `"ever"` //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

// noinspection GoStructTag
type CellsCmd struct {
	Cmd struct{} `"cells"` //nolint
}

// noinspection GoStructTag
type UesCmd struct {
	Cmd struct{} `"ues"` //nolint
}

// noinspection GoStructTag
type CompCmd struct {
	Cmd struct{} `"comp"` //nolint
}

// noinspection GoStructTag
type DirFlag struct {
	Val string `"dir" @("dl"|"ul"|"d2dmulti"|"d2d")` //nolint
}

// noinspection GoStructTag
type BandFlag struct {
	Val int `"band" @Int` //nolint
}

// noinspection GoStructTag
type CqiCmd struct {
	Cmd  struct{}     `"cqi"`    //nolint
	Node NodeSelector `@@`       //nolint
	Val  *int         `[ @Int ]` //nolint
	Dir  *DirFlag     `( @@`     //nolint
	Band *BandFlag    `| @@ )*`  //nolint
}

// noinspection GoStructTag
type FlowCmd struct {
	Cmd struct{}    `"flow"` //nolint
	Del *FlowDelCmd `( @@`   //nolint
	Add *FlowAddCmd `| @@ )` //nolint
}

// noinspection GoStructTag
type FlowDelCmd struct {
	Dummy struct{}     `"del"` //nolint
	Node  NodeSelector `@@`    //nolint
	Lcid  int          `@Int`  //nolint
}

// noinspection GoStructTag
type FlowAddCmd struct {
	Node  NodeSelector `@@`                        //nolint
	Lcid  *int         `( "lcid" @Int`             //nolint
	Dir   *DirFlag     `| @@`                      //nolint
	Peer  *int         `| "peer" @Int`             //nolint
	Rate  *float64     `| "rate" (@Int|@Float)`    //nolint
	Size  *int         `| "size" @Int`             //nolint
	Class *string      `| "class" @Ident`          //nolint
	Model *string      `| "model" @Ident`          //nolint
	Stop  *float64     `| "stop" (@Int|@Float) )*` //nolint
}

// noinspection GoStructTag
type FlowsCmd struct {
	Cmd struct{} `"flows"` //nolint
}

// noinspection GoStructTag
type GroupCmd struct {
	Cmd     struct{}       `"group"` //nolint
	Id      *AddNodeId     `[ @@ ]`  //nolint
	Members []NodeSelector `( @@ )*` //nolint
}

// noinspection GoStructTag
type HarqCmd struct {
	Cmd  struct{}     `"harq"` //nolint
	Node NodeSelector `@@`     //nolint
}

// noinspection GoStructTag
type KpiCmd struct {
	Cmd      struct{} `"kpi"`                        //nolint
	Action   string   `[ @("start"|"stop"|"save") ]` //nolint
	Filename *string  `[ @String ]`                  //nolint
}

// noinspection GoStructTag
type LoadCmd struct {
	Cmd      struct{} `"load"`  //nolint
	Filename string   `@String` //nolint
}

// noinspection GoStructTag
type SaveCmd struct {
	Cmd      struct{} `"save"`  //nolint
	Filename string   `@String` //nolint
}

// noinspection GoStructTag
type SchedCmd struct {
	Cmd        struct{} `"sched"`                            //nolint
	Discipline string   `[ @("maxci"|"max_ci"|"pf"|"drr") ]` //nolint
}

// noinspection GoStructTag
type StatsCmd struct {
	Cmd    struct{}      `"stats"`    //nolint
	Signal string        `[ @Ident`   //nolint
	Node   *NodeSelector `  [ @@ ] ]` //nolint
}

type LogLevelCmd struct {
	Cmd   struct{} `"log"`                                                                                  //nolint
	Level string   `[@( "trace"|"debug"|"info"|"note"|"warn"|"error"|"crit"|"T"|"D"|"I"|"N"|"W"|"C"|"E" )]` //nolint
}

type WatchCmd struct {
	Cmd   struct{}       `"watch"`                                                                                             //nolint
	All   string         `[ @"all" ]`                                                                                          //nolint
	Nodes []NodeSelector `[ ( @@ )+ ]`                                                                                         //nolint
	Level string         `[@( "trace"|"debug"|"info"|"note"|"warn"|"error"|"crit"|"off"|"none"|"T"|"D"|"I"|"N"|"W"|"E"|"C" )]` //nolint
}

// noinspection GoStructTag
type UnwatchCmd struct {
	Cmd   struct{}       `"unwatch"`           //nolint
	Nodes []NodeSelector `( "all" | ( @@ )+ )` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
)

func parseBytes(b []byte, cmd *Command) error {
	err := commandParser.ParseBytes(b, cmd)
	return err
}
