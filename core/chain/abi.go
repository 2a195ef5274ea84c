package chain

// splitTrackFactoryABI 已部署的 SplitTrackFactory 合约接口，
// 只包含本服务用到的函数和事件
const splitTrackFactoryABI = `[
  {
    "type": "function",
    "name": "createSong",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "_name", "type": "string"},
      {"name": "_symbol", "type": "string"},
      {"name": "_metadataURI", "type": "string"},
      {"name": "_recipients", "type": "address[]"},
      {"name": "_percentages", "type": "uint256[]"}
    ],
    "outputs": [
      {"name": "nftAddress", "type": "address"},
      {"name": "splitterAddress", "type": "address"}
    ]
  },
  {
    "type": "event",
    "name": "SongCreated",
    "anonymous": false,
    "inputs": [
      {"name": "nftAddress", "type": "address", "indexed": false},
      {"name": "splitterAddress", "type": "address", "indexed": false},
      {"name": "metadataURI", "type": "string", "indexed": false}
    ]
  }
]`
