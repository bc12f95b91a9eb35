package simulator

import (
	"sort"

	"trafsim/element"
	"trafsim/utils"

	"github.com/dhconnelly/rtreego"
)

// 车辆邻近查询的范围：探测点最远在一个车长之外，再加上对方半个车长
const proximityRange = 1.5

// proximityEntry R树中的一个车辆条目
// rect是插入时的包围盒，删除时必须与树中的一致
type proximityEntry struct {
	vehicle *element.Vehicle
	seq     int64 // 加入种群的顺序
	fp      utils.Rect
	rect    rtreego.Rect
}

func (e *proximityEntry) Bounds() rtreego.Rect {
	return e.rect
}

// proximityIndex 用R树维护车辆占据的区域
type proximityIndex struct {
	tree    *rtreego.Rtree
	entries map[*element.Vehicle]*proximityEntry
	reach   float64 // 最大车长，决定查询范围
}

func newProximityIndex() *proximityIndex {
	return &proximityIndex{
		tree:    rtreego.NewTree(2, 25, 50),
		entries: make(map[*element.Vehicle]*proximityEntry),
	}
}

func toRTreeRect(r utils.Rect) rtreego.Rect {
	w, h := r.Size()
	min := r.Min()
	rect, err := rtreego.NewRect(rtreego.Point{min[0], min[1]}, []float64{w, h})
	if err != nil {
		// 车辆尺寸在构造时已校验为正数
		panic(err)
	}
	return rect
}

// Insert 加入一辆车，seq决定查询结果中的顺序
func (idx *proximityIndex) Insert(v *element.Vehicle, seq int64) {
	fp := v.Footprint()
	e := &proximityEntry{vehicle: v, seq: seq, fp: fp, rect: toRTreeRect(fp)}
	idx.entries[v] = e
	idx.tree.Insert(e)
	if l := v.Size().Length; l > idx.reach {
		idx.reach = l
	}
}

// Update 车辆移动后刷新其包围盒
func (idx *proximityIndex) Update(v *element.Vehicle) {
	e, ok := idx.entries[v]
	if !ok {
		return
	}
	fp := v.Footprint()
	if fp == e.fp {
		return
	}
	idx.tree.Delete(e)
	e.fp = fp
	e.rect = toRTreeRect(fp)
	idx.tree.Insert(e)
}

// Remove 删除一辆车
func (idx *proximityIndex) Remove(v *element.Vehicle) {
	e, ok := idx.entries[v]
	if !ok {
		return
	}
	idx.tree.Delete(e)
	delete(idx.entries, v)
}

// Len 返回索引中的车辆数
func (idx *proximityIndex) Len() int {
	return idx.tree.Size()
}

// Nearby 返回可能与v发生交互的车辆（包括v自身），按加入种群的顺序排列
func (idx *proximityIndex) Nearby(v *element.Vehicle) []*element.Vehicle {
	half := idx.reach * proximityRange
	query := toRTreeRect(utils.RectAround(v.Position(), 2*half, 2*half))

	found := idx.tree.SearchIntersect(query)
	entries := make([]*proximityEntry, 0, len(found))
	for _, s := range found {
		entries = append(entries, s.(*proximityEntry))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	result := make([]*element.Vehicle, len(entries))
	for i, e := range entries {
		result[i] = e.vehicle
	}
	return result
}
